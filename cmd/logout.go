package cmd

import (
	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		storeDir, err := resolveStoreDir()
		if err != nil {
			return err
		}
		cfg, err := config.Load(storeDir)
		if err != nil {
			return err
		}
		if cfg.Token == "" {
			printInfo("Not logged in\n")
			return nil
		}
		cfg.Token = ""
		if err := config.Save(storeDir, cfg); err != nil {
			return err
		}
		printInfo("Logged out\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
