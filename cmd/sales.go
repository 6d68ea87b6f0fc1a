package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/ui"
)

var (
	salesCSV    string
	salesSubmit bool
)

var salesCmd = &cobra.Command{
	Use:   "sales",
	Short: "Sales receipt operations",
}

var salesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Unfinalize and void sales receipts listed in a CSV file",
	Long: `Read receipt IDs from the first column of a CSV file, then for
each receipt unfinalize it and void it. Voiding is irreversible in Metrc,
so the command asks for confirmation before it starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		raw, err := readCSVNames(salesCSV)
		if err != nil {
			return exitError(2, err)
		}
		ids := make([]int64, 0, len(raw))
		for _, value := range raw {
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return exitError(2, fmt.Errorf("invalid receipt id %q in %s", value, salesCSV))
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return exitError(2, fmt.Errorf("%s names no receipts", salesCSV))
		}

		if !noInput {
			ok, err := ui.PromptConfirm(fmt.Sprintf("Unfinalize and void %d receipts? This cannot be undone", len(ids)))
			if err != nil {
				return exitError(2, err)
			}
			if !ok {
				printInfo("Canceled\n")
				return nil
			}
		}

		for _, id := range ids {
			// Unfinalize takes a batch body, void takes a single receipt.
			if err := client.Submit(ctx, "/v2/sales/unfinalize", license.LicenseNumber, salesSubmit, []any{map[string]any{"id": id}}, nil); err != nil {
				return exitError(4, fmt.Errorf("unfinalizing receipt %d: %w", id, err))
			}
			if err := client.Submit(ctx, "/v2/sales/void", license.LicenseNumber, salesSubmit, map[string]any{"id": id}, nil); err != nil {
				return exitError(4, fmt.Errorf("voiding receipt %d: %w", id, err))
			}
			printInfo("Reset receipt %d\n", id)
		}
		return nil
	},
}

func init() {
	salesResetCmd.Flags().StringVar(&salesCSV, "csv", "sales_receipts.csv", "CSV file naming receipt IDs to reset")
	salesResetCmd.Flags().BoolVar(&salesSubmit, "submit", true, "Submit the requests (false validates only)")
	salesCmd.AddCommand(salesResetCmd)
	rootCmd.AddCommand(salesCmd)
}
