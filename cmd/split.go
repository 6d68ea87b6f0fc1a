package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/ui"
)

var splitSubmit bool

var packagesSplitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a source package into a new package",
	Long: `Walk through creating a new package from an existing one: pick
a source package, how much to pull from it, the item, location, unit
of measure, and an unused tag, then submit the creation request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if noInput {
			return exitError(2, fmt.Errorf("packages split is interactive; remove --no-input"))
		}

		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		fetcher := newFetcher()
		collection := func(path string) ([]api.Record, error) {
			return fetcher.FetchAll(ctx, func(ctx2 context.Context, page, size int) (*api.Page, error) {
				return client.GetPage(ctx2, path, api.Query{
					LicenseNumber: license.LicenseNumber,
					Page:          page,
					PageSize:      size,
				})
			})
		}

		sourcePackages, err := collection("/v2/packages/create/source-packages")
		if err != nil {
			return exitError(4, err)
		}
		if len(sourcePackages) == 0 {
			return exitError(4, fmt.Errorf("no source packages available"))
		}
		sourceItems, err := collection("/v2/packages/create/source-items")
		if err != nil {
			return exitError(4, err)
		}
		sourceTags, err := collection("/v2/packages/create/source-tags")
		if err != nil {
			return exitError(4, err)
		}
		if len(sourceTags) == 0 {
			return exitError(4, fmt.Errorf("no unused tags available"))
		}

		inputs, err := client.Inputs(ctx, "/v2/packages/create/inputs", license.LicenseNumber)
		if err != nil {
			return exitError(4, err)
		}
		locations := subRecords(inputs, "locations")
		unitsOfMeasure := subRecords(inputs, "unitsOfMeasure")
		if len(locations) == 0 || len(unitsOfMeasure) == 0 {
			return exitError(4, fmt.Errorf("license has no locations or units of measure"))
		}

		idx, err := ui.PromptChoice("Select source package:", recordLabels(sourcePackages, "label"))
		if err != nil {
			return exitError(2, err)
		}
		source := sourcePackages[idx]

		useSameItem, err := ui.PromptConfirm("Use same item as source package?")
		if err != nil {
			return exitError(2, err)
		}

		var itemID int64
		if useSameItem {
			itemID = source.Sub("item").ID()
		} else {
			if len(sourceItems) == 0 {
				return exitError(4, fmt.Errorf("no items available"))
			}
			idx, err = ui.PromptChoice("Select item:", recordLabels(sourceItems, "name"))
			if err != nil {
				return exitError(2, err)
			}
			itemID = sourceItems[idx].ID()
		}

		today := time.Now().Format("2006-01-02")
		actualDate := ui.PromptLine(fmt.Sprintf("Actual date (YYYY-MM-DD) [%s]", today), today)
		finishDate := ui.PromptLine("Finish date (YYYY-MM-DD) [skip]", "")

		ingredientQty, err := ui.PromptFloat("Ingredient quantity", 0, false)
		if err != nil {
			return exitError(2, err)
		}

		uomLabels := make([]string, len(unitsOfMeasure))
		for i, u := range unitsOfMeasure {
			uomLabels[i] = fmt.Sprintf("%s (%s)", u.Str("name"), u.Str("abbreviation"))
		}
		idx, err = ui.PromptChoice("Select ingredient unit of measure:", uomLabels)
		if err != nil {
			return exitError(2, err)
		}
		ingredientUOM := unitsOfMeasure[idx].ID()

		idx, err = ui.PromptChoice("Select location:", recordLabels(locations, "name"))
		if err != nil {
			return exitError(2, err)
		}
		locationID := locations[idx].ID()

		// Output quantity defaults to the ingredient quantity when the new
		// package keeps the source item and unit.
		sameUnit := useSameItem && ingredientUOM == source.Int("unitOfMeasureId")
		outputQty, err := ui.PromptFloat("Output quantity", ingredientQty, sameUnit)
		if err != nil {
			return exitError(2, err)
		}

		idx, err = ui.PromptChoice("Select output unit of measure:", uomLabels)
		if err != nil {
			return exitError(2, err)
		}
		outputUOM := unitsOfMeasure[idx].ID()

		idx, err = ui.PromptChoice("Select tag:", recordLabels(sourceTags, "label"))
		if err != nil {
			return exitError(2, err)
		}
		tagID := sourceTags[idx].ID()

		ingredient := map[string]any{
			"packageId":       source.ID(),
			"quantity":        ingredientQty,
			"unitOfMeasureId": ingredientUOM,
		}
		if finishDate != "" {
			ingredient["finishDate"] = finishDate
		}

		body := map[string]any{
			"actualDate":      actualDate,
			"ingredients":     []any{ingredient},
			"itemId":          itemID,
			"locationId":      locationID,
			"quantity":        outputQty,
			"tagId":           tagID,
			"unitOfMeasureId": outputUOM,
		}
		if useSameItem {
			body["useSameItem"] = true
		}

		ok, err := ui.PromptConfirm(fmt.Sprintf("Create package %s from %s?", sourceTags[idx].Str("label"), source.Str("label")))
		if err != nil {
			return exitError(2, err)
		}
		if !ok {
			printInfo("Canceled\n")
			return nil
		}

		// The endpoint accepts a batch, so the single body is wrapped in a list.
		if err := client.Submit(ctx, "/v2/packages/create", license.LicenseNumber, splitSubmit, []any{body}, nil); err != nil {
			return exitError(4, err)
		}
		printInfo("Package created\n")
		return nil
	},
}

func subRecords(rec api.Record, key string) []api.Record {
	raw, _ := rec[key].([]any)
	out := make([]api.Record, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, api.Record(m))
		}
	}
	return out
}

func recordLabels(records []api.Record, key string) []string {
	labels := make([]string, len(records))
	for i, rec := range records {
		labels[i] = rec.Str(key)
	}
	return labels
}

func init() {
	packagesSplitCmd.Flags().BoolVar(&splitSubmit, "submit", true, "Submit the request (false validates only)")
	packagesCmd.AddCommand(packagesSplitCmd)
}
