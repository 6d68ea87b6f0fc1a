package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/report"
	"github.com/t3-tools/t3-cli/internal/store"
)

var labresultsCmd = &cobra.Command{
	Use:   "labresults",
	Short: "Export lab results for active packages",
}

var labresultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a lab-result CSV, one row per package and result",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, storeDir, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		journal, journalID := journalStart(storeDir, license.LicenseNumber, "lab_results")

		records, err := newFetcher().FetchAll(ctx, packagePageFunc(client, "/v2/packages/active", license.LicenseNumber))
		if err != nil {
			journalFinish(journal, journalID, store.StatusFailed, 0, "", err)
			return exitError(4, err)
		}
		printInfo("Fetched %d packages\n", len(records))

		joined, err := newJoiner().Join(ctx, records, func(ctx2 context.Context, rec api.Record) ([]api.Record, error) {
			return client.PackageHistory(ctx2, license.LicenseNumber, rec.ID())
		})
		if err != nil {
			journalFinish(journal, journalID, store.StatusFailed, len(records), "", err)
			return exitError(4, err)
		}

		rows := report.LabResultRows(joined)
		outPath := report.OutputPath(outputDir, license.LicenseNumber, "lab_results", "csv")
		if err := report.WriteCSVFile(outPath, rows, report.LabResultPriorityColumns, report.LabResultPrefix); err != nil {
			journalFinish(journal, journalID, store.StatusFailed, len(records), "", err)
			return exitError(5, err)
		}

		journalFinish(journal, journalID, store.StatusDone, len(rows), outPath, nil)
		printInfo("Report written: %s (%d rows)\n", outPath, len(rows))
		return nil
	},
}

func init() {
	labresultsCmd.AddCommand(labresultsExportCmd)
	rootCmd.AddCommand(labresultsCmd)
}
