package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/config"
	"github.com/t3-tools/t3-cli/internal/ui"
)

var licensesCmd = &cobra.Command{
	Use:   "licenses",
	Short: "List and select Metrc licenses",
}

var licensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List licenses available to the authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient(true)
		if err != nil {
			return err
		}

		licenses, err := client.Licenses(ctx)
		if err != nil {
			return exitError(4, err)
		}

		if jsonOutput {
			outputJSON(licenses)
			return nil
		}

		for _, lic := range licenses {
			fmt.Printf("%s\t%s\n", lic.LicenseNumber, lic.LicenseName)
		}
		return nil
	},
}

var licensesSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick a default license for subsequent commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, storeDir, err := getClient(true)
		if err != nil {
			return err
		}

		licenses, err := client.Licenses(ctx)
		if err != nil {
			return exitError(4, err)
		}
		if len(licenses) == 0 {
			return exitError(4, fmt.Errorf("no licenses found"))
		}

		var selected int
		if licenseFlag != "" {
			selected = -1
			for i, lic := range licenses {
				if lic.LicenseNumber == licenseFlag {
					selected = i
					break
				}
			}
			if selected < 0 {
				return exitError(2, fmt.Errorf("license %q not available to this user", licenseFlag))
			}
		} else {
			if noInput {
				return exitError(2, fmt.Errorf("license required; use --license"))
			}
			labels := make([]string, len(licenses))
			for i, lic := range licenses {
				labels[i] = lic.Label()
			}
			selected, err = ui.PromptChoice("Available Licenses:", labels)
			if err != nil {
				return exitError(2, err)
			}
		}

		cfg.LicenseNumber = licenses[selected].LicenseNumber
		cfg.LicenseName = licenses[selected].LicenseName
		if err := config.Save(storeDir, cfg); err != nil {
			return err
		}
		printInfo("Selected License: %s\n", licenses[selected].Label())
		return nil
	},
}

func init() {
	licensesCmd.AddCommand(licensesListCmd)
	licensesCmd.AddCommand(licensesSelectCmd)
	rootCmd.AddCommand(licensesCmd)
}
