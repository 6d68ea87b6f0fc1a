package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/fetch"
	"github.com/t3-tools/t3-cli/internal/report"
	"github.com/t3-tools/t3-cli/internal/store"
)

var (
	packagesStatus string
	withHistory    bool
	startDate      string
	exportFormat   string
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List, export, and split packages",
}

var packagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List packages for the selected license",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		path, err := packagesEndpoint(packagesStatus)
		if err != nil {
			return err
		}

		records, err := newFetcher().FetchAll(ctx, packagePageFunc(client, path, license.LicenseNumber))
		if err != nil {
			return exitError(4, err)
		}

		if jsonOutput {
			outputJSON(records)
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%d\t%s\t%v %s\t%s\n",
				rec.ID(), rec.Str("label"), rec["quantity"],
				rec.Str("unitOfMeasureAbbreviation"), rec.Str("itemName"))
		}
		printInfo("%d packages\n", len(records))
		return nil
	},
}

var packagesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export packages to a report file",
	Long: `Fetch every package page for the selected license and write a
timestamped report under the output directory. With --history each
package is joined with its history and the initial packaged quantity
is derived from the first history entry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, storeDir, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		path, err := packagesEndpoint(packagesStatus)
		if err != nil {
			return err
		}
		if exportFormat != "csv" && exportFormat != "json" {
			return exitError(2, fmt.Errorf("invalid format %q: must be csv or json", exportFormat))
		}

		reportName := packagesStatus + "_packages"
		if withHistory {
			reportName += "_history"
		}
		journal, journalID := journalStart(storeDir, license.LicenseNumber, reportName)

		records, err := newFetcher().FetchAll(ctx, packagePageFunc(client, path, license.LicenseNumber))
		if err != nil {
			journalFinish(journal, journalID, store.StatusFailed, 0, "", err)
			return exitError(4, err)
		}
		printInfo("Fetched %d packages\n", len(records))

		var joined []fetch.Joined
		if withHistory {
			joined, err = newJoiner().Join(ctx, records, func(ctx2 context.Context, rec api.Record) ([]api.Record, error) {
				return client.PackageHistory(ctx2, license.LicenseNumber, rec.ID())
			})
			if err != nil {
				journalFinish(journal, journalID, store.StatusFailed, len(records), "", err)
				return exitError(4, err)
			}
		} else {
			joined = make([]fetch.Joined, len(records))
			for i, rec := range records {
				joined[i] = fetch.Joined{Base: rec}
			}
		}

		outPath := report.OutputPath(outputDir, license.LicenseNumber, reportName, exportFormat)
		switch exportFormat {
		case "json":
			err = report.WriteJSONFile(outPath, report.PackageDocs(joined))
		default:
			err = report.WriteCSVFile(outPath, report.PackageRows(joined), nil, "")
		}
		if err != nil {
			journalFinish(journal, journalID, store.StatusFailed, len(records), "", err)
			return exitError(5, err)
		}

		journalFinish(journal, journalID, store.StatusDone, len(records), outPath, nil)
		printInfo("Report written: %s\n", outPath)
		return nil
	},
}

func packagesEndpoint(status string) (string, error) {
	switch status {
	case "active":
		return "/v2/packages/active", nil
	case "inactive":
		return "/v2/packages/inactive", nil
	default:
		return "", exitError(2, fmt.Errorf("invalid status %q: must be active or inactive", status))
	}
}

func packagePageFunc(client *api.Client, path, licenseNumber string) fetch.PageFunc {
	filter := ""
	if startDate != "" {
		filter = "packagedDate__gte:" + startDate
	}
	return func(ctx2 context.Context, page, size int) (*api.Page, error) {
		return client.GetPage(ctx2, path, api.Query{
			LicenseNumber: licenseNumber,
			Page:          page,
			PageSize:      size,
			Filter:        filter,
		})
	}
}

func init() {
	packagesCmd.PersistentFlags().StringVar(&packagesStatus, "status", "active", "Package status: active or inactive")
	packagesCmd.PersistentFlags().StringVar(&startDate, "start-date", "", "Only packages packaged on or after this date (YYYY-MM-DD)")
	packagesExportCmd.Flags().BoolVar(&withHistory, "history", false, "Join each package with its history")
	packagesExportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Report format: csv or json")

	packagesCmd.AddCommand(packagesListCmd)
	packagesCmd.AddCommand(packagesExportCmd)
	rootCmd.AddCommand(packagesCmd)
}
