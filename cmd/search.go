package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/ui"
)

var interactiveSearch bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search records under the selected license",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")

		if interactiveSearch {
			if noInput {
				return exitError(2, fmt.Errorf("interactive search requires prompts; remove --no-input"))
			}
			hit, err := ui.InteractiveSearch(ctx, "T3 Search", query, func(ctx2 context.Context, q string) ([]ui.SearchHit, error) {
				records, err := client.Search(ctx2, license.LicenseNumber, q)
				if err != nil {
					return nil, err
				}
				hits := make([]ui.SearchHit, len(records))
				for i, rec := range records {
					hits[i] = ui.SearchHit{
						ID:       rec.ID(),
						Label:    searchLabel(rec),
						Category: rec.Str("category"),
					}
				}
				return hits, nil
			})
			if err != nil {
				return exitError(2, err)
			}
			if hit == nil {
				printInfo("Nothing selected\n")
				return nil
			}
			fmt.Printf("%d\t%s\t%s\n", hit.ID, hit.Label, hit.Category)
			return nil
		}

		if query == "" {
			return exitError(2, fmt.Errorf("query required (or use --interactive)"))
		}

		records, err := client.Search(ctx, license.LicenseNumber, query)
		if err != nil {
			return exitError(4, err)
		}

		if jsonOutput {
			outputJSON(records)
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%d\t%s\t%s\n", rec.ID(), searchLabel(rec), rec.Str("category"))
		}
		printInfo("%d results\n", len(records))
		return nil
	},
}

func searchLabel(rec map[string]any) string {
	for _, key := range []string{"label", "name", "recordName"} {
		if s, ok := rec[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func init() {
	searchCmd.Flags().BoolVarP(&interactiveSearch, "interactive", "i", false, "Interactive search UI")
	rootCmd.AddCommand(searchCmd)
}
