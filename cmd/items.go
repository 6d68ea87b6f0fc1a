package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/ui"
)

var (
	discontinueCSV    string
	discontinueSubmit bool
	createSubmit      bool
	imageFile         string
	imageFileType     string
	imageSubmit       bool
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List, create, and discontinue items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items for the selected license",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		items, err := fetchItems(client, license.LicenseNumber)
		if err != nil {
			return exitError(4, err)
		}

		if jsonOutput {
			outputJSON(items)
			return nil
		}
		for _, item := range items {
			fmt.Printf("%d\t%s\t%s\n", item.ID(), item.Str("name"), item.Str("productCategoryName"))
		}
		printInfo("%d items\n", len(items))
		return nil
	},
}

var itemsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new item (product type)",
	Long: `Walk through creating a new item: name, product category, strain
(when the category requires one), and unit of measure. With --submit=false
the item is saved as a reviewable draft instead of being created in Metrc.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if noInput {
			return exitError(2, fmt.Errorf("items create is interactive; remove --no-input"))
		}

		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		itemInputs, err := client.Inputs(ctx, "/v2/items/create/inputs", license.LicenseNumber)
		if err != nil {
			return exitError(4, err)
		}
		categories := subRecords(itemInputs, "itemCategories")
		if len(categories) == 0 {
			return exitError(4, fmt.Errorf("license has no item categories"))
		}

		// The items inputs endpoint does not carry units of measure; they
		// come from the package creation inputs instead.
		packageInputs, err := client.Inputs(ctx, "/v2/packages/create/inputs", license.LicenseNumber)
		if err != nil {
			return exitError(4, err)
		}
		unitsOfMeasure := subRecords(packageInputs, "unitsOfMeasure")
		if len(unitsOfMeasure) == 0 {
			return exitError(4, fmt.Errorf("license has no units of measure"))
		}

		name := ui.PromptLine("Item name", "")
		if name == "" {
			return exitError(2, fmt.Errorf("item name required"))
		}

		idx, err := ui.PromptChoice("Select product category:", recordLabels(categories, "name"))
		if err != nil {
			return exitError(2, err)
		}
		category := categories[idx]

		body := map[string]any{
			"name":              name,
			"productCategoryId": category.ID(),
		}

		if requires, _ := category["requiresStrain"].(bool); requires {
			strains, err := newFetcher().FetchAll(ctx, func(ctx2 context.Context, page, size int) (*api.Page, error) {
				return client.GetPage(ctx2, "/v2/strains", api.Query{
					LicenseNumber: license.LicenseNumber,
					Page:          page,
					PageSize:      size,
				})
			})
			if err != nil {
				return exitError(4, err)
			}
			if len(strains) == 0 {
				return exitError(4, fmt.Errorf("category %q requires a strain but the license has none", category.Str("name")))
			}
			idx, err = ui.PromptChoice("Select strain:", recordLabels(strains, "name"))
			if err != nil {
				return exitError(2, err)
			}
			body["strainId"] = strains[idx].ID()
		}

		uomLabels := make([]string, len(unitsOfMeasure))
		for i, u := range unitsOfMeasure {
			uomLabels[i] = fmt.Sprintf("%s (%s)", u.Str("name"), u.Str("abbreviation"))
		}
		idx, err = ui.PromptChoice("Select unit of measure:", uomLabels)
		if err != nil {
			return exitError(2, err)
		}
		body["unitOfMeasureId"] = unitsOfMeasure[idx].ID()

		ok, err := ui.PromptConfirm(fmt.Sprintf("Create item %q now?", name))
		if err != nil {
			return exitError(2, err)
		}
		if !ok {
			printInfo("Canceled\n")
			return nil
		}

		if err := client.Submit(ctx, "/v2/items/create", license.LicenseNumber, createSubmit, []any{body}, nil); err != nil {
			return exitError(4, err)
		}
		printInfo("Item created: %s\n", name)
		return nil
	},
}

var itemsDiscontinueCmd = &cobra.Command{
	Use:   "discontinue",
	Short: "Discontinue items named in a CSV file",
	Long: `Read item names from the first column of a CSV file, match them
against the license's items, and discontinue each match. Names that match
no item abort the command before anything is discontinued.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		names, err := readCSVNames(discontinueCSV)
		if err != nil {
			return exitError(2, err)
		}
		if len(names) == 0 {
			return exitError(2, fmt.Errorf("%s names no items", discontinueCSV))
		}

		items, err := fetchItems(client, license.LicenseNumber)
		if err != nil {
			return exitError(4, err)
		}

		byName := make(map[string]api.Record, len(items))
		for _, item := range items {
			byName[item.Str("name")] = item
		}

		matched := make([]api.Record, 0, len(names))
		for _, name := range names {
			item, ok := byName[name]
			if !ok {
				return exitError(2, fmt.Errorf("no item named %q under license %s", name, license.LicenseNumber))
			}
			matched = append(matched, item)
		}

		if !noInput {
			ok, err := ui.PromptConfirm(fmt.Sprintf("Discontinue %d items?", len(matched)))
			if err != nil {
				return exitError(2, err)
			}
			if !ok {
				printInfo("Canceled\n")
				return nil
			}
		}

		for _, item := range matched {
			body := map[string]any{"id": item.ID()}
			if err := client.Submit(ctx, "/v2/items/discontinue", license.LicenseNumber, discontinueSubmit, body, nil); err != nil {
				return exitError(4, fmt.Errorf("discontinuing %q: %w", item.Str("name"), err))
			}
			printInfo("Discontinued: %s\n", item.Str("name"))
		}
		return nil
	},
}

var itemsUploadImageCmd = &cobra.Command{
	Use:   "upload-image",
	Short: "Upload an item image file",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, _, err := getClient(true)
		if err != nil {
			return err
		}
		license, err := resolveLicense(client, cfg)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(imageFile)
		if err != nil {
			return exitError(2, err)
		}

		result, err := client.UploadItemImage(ctx, license.LicenseNumber, imageFileType, filepath.Base(imageFile), data, imageSubmit)
		if err != nil {
			return exitError(4, err)
		}

		if jsonOutput {
			outputJSON(result)
			return nil
		}
		printInfo("Upload successful, imageFileId: %v\n", result["imageFileId"])
		return nil
	},
}

func fetchItems(client *api.Client, licenseNumber string) ([]api.Record, error) {
	return newFetcher().FetchAll(ctx, func(ctx2 context.Context, page, size int) (*api.Page, error) {
		return client.GetPage(ctx2, "/v2/items", api.Query{
			LicenseNumber: licenseNumber,
			Page:          page,
			PageSize:      size,
		})
	})
}

// readCSVNames reads the first column of a CSV file, skipping a "name"
// header row when present.
func readCSVNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var names []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		value := strings.TrimSpace(row[0])
		if value == "" {
			continue
		}
		if i == 0 && strings.EqualFold(value, "name") {
			continue
		}
		names = append(names, value)
	}
	return names, nil
}

func init() {
	itemsCreateCmd.Flags().BoolVar(&createSubmit, "submit", false, "Create in Metrc immediately instead of saving a draft")
	itemsDiscontinueCmd.Flags().StringVar(&discontinueCSV, "csv", "discontinue_items.csv", "CSV file naming items to discontinue")
	itemsDiscontinueCmd.Flags().BoolVar(&discontinueSubmit, "submit", true, "Submit the requests (false validates only)")
	itemsUploadImageCmd.Flags().StringVar(&imageFile, "file", "", "Image file to upload")
	itemsUploadImageCmd.Flags().StringVar(&imageFileType, "file-type", "ItemProductImage", "Image file type")
	itemsUploadImageCmd.Flags().BoolVar(&imageSubmit, "submit", true, "Submit the upload")
	_ = itemsUploadImageCmd.MarkFlagRequired("file")

	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsCreateCmd)
	itemsCmd.AddCommand(itemsDiscontinueCmd)
	itemsCmd.AddCommand(itemsUploadImageCmd)
	rootCmd.AddCommand(itemsCmd)
}
