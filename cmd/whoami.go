package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user and API tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := getClient(true)
		if err != nil {
			return err
		}

		identity, err := client.WhoAmI(ctx)
		if err != nil {
			return exitError(4, err)
		}

		if jsonOutput {
			outputJSON(identity)
			return nil
		}

		if identity.HasT3Plus {
			fmt.Printf("%s is registered as a T3+ username and can use all API endpoints.\n", identity.Username)
		} else {
			fmt.Printf("%s is not registered as a T3+ username and can only access free endpoints.\n", identity.Username)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
