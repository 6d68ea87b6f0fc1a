package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/store"
)

var runsStatus string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the local report run journal",
}

// validateRunStatus rejects filter values the journal never records.
func validateRunStatus(status string) error {
	switch status {
	case "", store.StatusRunning, store.StatusDone, store.StatusFailed:
		return nil
	default:
		return exitError(2, fmt.Errorf("invalid status %q: must be running, done, or failed", status))
	}
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded report runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRunStatus(runsStatus); err != nil {
			return err
		}

		storeDir, err := resolveStoreDir()
		if err != nil {
			return err
		}

		journal, err := store.Open(storeDir)
		if err != nil {
			return err
		}
		defer journal.Close()

		runs, err := journal.ListRuns(runsStatus)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(runs)
			return nil
		}

		for _, run := range runs {
			line := fmt.Sprintf("%s\t%s\t%s\t%s", run.CreatedAt.Format("2006-01-02 15:04:05"), run.LicenseNumber, run.Report, run.Status)
			if run.OutputPath.Valid {
				line += "\t" + run.OutputPath.String
			}
			if run.Error.Valid && run.Error.String != "" {
				line += "\t" + run.Error.String
			}
			fmt.Println(line)
		}
		printInfo("%d runs\n", len(runs))
		return nil
	},
}

func init() {
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "Filter by status: running, done, or failed")
	runsCmd.AddCommand(runsListCmd)
	rootCmd.AddCommand(runsCmd)
}
