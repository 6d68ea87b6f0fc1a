package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/config"
	"golang.org/x/term"
)

// otpHostname is the only Metrc instance that requires a one-time
// passcode on top of username/password.
const otpHostname = "mi.metrc.com"

var passwordStdin bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store an access token",
	Long: `Exchange Metrc credentials for a Track & Trace Tools access token
and store it for subsequent commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, storeDir, err := loadConfig()
		if err != nil {
			return err
		}

		reader := bufio.NewReader(os.Stdin)

		if cfg.Hostname == "" {
			if noInput {
				return exitError(2, fmt.Errorf("hostname required; use --hostname"))
			}
			fmt.Print("Hostname (e.g. mo.metrc.com): ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return exitError(2, err)
			}
			cfg.Hostname = config.NormalizeHostname(strings.TrimSpace(line))
		}
		if cfg.Hostname == "" {
			return exitError(2, fmt.Errorf("hostname required"))
		}

		if cfg.Username == "" {
			if noInput {
				return exitError(2, fmt.Errorf("username required; use --username"))
			}
			fmt.Print("Username: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return exitError(2, err)
			}
			cfg.Username = strings.TrimSpace(line)
		}
		if cfg.Username == "" {
			return exitError(2, fmt.Errorf("username required"))
		}

		password, err := readPassword(reader)
		if err != nil {
			return exitError(2, err)
		}
		if password == "" {
			return exitError(2, fmt.Errorf("password required"))
		}

		creds := api.Credentials{
			Hostname: cfg.Hostname,
			Username: cfg.Username,
			Password: password,
		}

		if cfg.Hostname == otpHostname {
			if noInput {
				return exitError(2, fmt.Errorf("%s requires a one-time passcode; interactive input disabled", otpHostname))
			}
			fmt.Print("One-time passcode: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return exitError(2, err)
			}
			creds.OTP = strings.TrimSpace(line)
		}

		client, _, _, err := getClient(false)
		if err != nil {
			return err
		}

		token, err := client.Authenticate(ctx, creds)
		if err != nil {
			return exitError(3, fmt.Errorf("authentication failed: %w", err))
		}

		cfg.Token = token
		if err := config.Save(storeDir, cfg); err != nil {
			return err
		}

		identity, err := client.WhoAmI(ctx)
		if err == nil {
			printInfo("Logged in as %s\n", identity.Username)
		} else {
			printInfo("Logged in as %s\n", cfg.Username)
		}
		return nil
	},
}

func readPassword(reader *bufio.Reader) (string, error) {
	if passwordStdin {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	if noInput {
		return "", fmt.Errorf("password required; use --password-stdin")
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func init() {
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read password from stdin")
	rootCmd.AddCommand(loginCmd)
}
