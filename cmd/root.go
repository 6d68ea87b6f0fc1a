package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/config"
	"github.com/t3-tools/t3-cli/internal/fetch"
	"github.com/t3-tools/t3-cli/internal/logging"
	"github.com/t3-tools/t3-cli/internal/store"
	"github.com/t3-tools/t3-cli/internal/ui"
)

var (
	jsonOutput   bool
	quietMode    bool
	verbose      bool
	noInput      bool
	storeDirFlag string
	hostnameFlag string
	usernameFlag string
	licenseFlag  string
	outputDir    string
	timeout      time.Duration
	pageSize     int
	workers      int
	requestRate  float64
	version      = "dev"
	ctx          = context.Background()
	logger       zerolog.Logger
	runID        string
)

var rootCmd = &cobra.Command{
	Use:           "t3",
	Short:         "Command-line client for the Track & Trace Tools API",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func Execute() {
	err := rootCmd.Execute()
	if verbose {
		api.LogMetrics(logger)
	}
	if err != nil {
		handleError(err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringVar(&storeDirFlag, "store", "", "Store directory (default: ~/.t3)")
	rootCmd.PersistentFlags().StringVar(&hostnameFlag, "hostname", "", "Metrc hostname (e.g. mo.metrc.com)")
	rootCmd.PersistentFlags().StringVar(&usernameFlag, "username", "", "Metrc username")
	rootCmd.PersistentFlags().StringVar(&licenseFlag, "license", "", "License number scoping all requests")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "output", "Directory report files are written to")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", api.DefaultTimeout, "Per-request timeout")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", fetch.DefaultPageSize, "Collection page size")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", fetch.DefaultWorkers, "Concurrent request workers")
	rootCmd.PersistentFlags().Float64Var(&requestRate, "rate", api.DefaultRequestsPerSecond, "Max requests per second (0 disables)")

	cobra.OnInitialize(func() {
		logger = logging.Setup(verbose, quietMode)
		runID = uuid.NewString()
	})
}

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	return e.Err.Error()
}

func exitError(code int, err error) error {
	return ExitError{Code: code, Err: err}
}

func handleError(err error) {
	var exit ExitError
	if errors.As(err, &exit) {
		printError("%v\n", exit.Err)
		os.Exit(exit.Code)
	}
	printError("%v\n", err)
	os.Exit(1)
}

func outputJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printInfo(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

func resolveStoreDir() (string, error) {
	return config.ResolveStoreDir(storeDirFlag)
}

func loadConfig() (*config.Config, string, error) {
	storeDir, err := resolveStoreDir()
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(storeDir)
	if err != nil {
		return nil, "", err
	}
	config.ApplyEnv(cfg)

	if hostnameFlag != "" {
		cfg.Hostname = config.NormalizeHostname(hostnameFlag)
	}
	if usernameFlag != "" {
		cfg.Username = usernameFlag
	}
	if licenseFlag != "" {
		cfg.LicenseNumber = licenseFlag
		cfg.LicenseName = ""
	}

	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
		if err := config.Save(storeDir, cfg); err != nil {
			return nil, "", err
		}
	}

	return cfg, storeDir, nil
}

func getClient(requireAuth bool) (*api.Client, *config.Config, string, error) {
	cfg, storeDir, err := loadConfig()
	if err != nil {
		return nil, nil, "", err
	}

	if requireAuth {
		if err := cfg.ValidateAuth(); err != nil {
			return nil, nil, "", exitError(3, err)
		}
	}

	client := api.NewClient(api.DefaultBaseURL, cfg.Token, timeout, logging.Component("api"))
	client.SetRateLimit(requestRate)
	return client, cfg, storeDir, nil
}

// resolveLicense picks the license scope for data commands: the --license
// flag or stored default, otherwise an interactive pick.
func resolveLicense(client *api.Client, cfg *config.Config) (api.License, error) {
	if cfg.LicenseNumber != "" {
		return api.License{LicenseNumber: cfg.LicenseNumber, LicenseName: cfg.LicenseName}, nil
	}

	licenses, err := client.Licenses(ctx)
	if err != nil {
		return api.License{}, exitError(4, err)
	}
	if len(licenses) == 0 {
		return api.License{}, exitError(4, fmt.Errorf("no licenses found"))
	}
	if noInput {
		return api.License{}, exitError(2, fmt.Errorf("license required; use --license or run 't3 licenses select'"))
	}

	labels := make([]string, len(licenses))
	for i, lic := range licenses {
		labels[i] = lic.Label()
	}
	idx, err := ui.PromptChoice("Available Licenses:", labels)
	if err != nil {
		return api.License{}, exitError(2, err)
	}
	printInfo("Selected License: %s\n", licenses[idx].LicenseName)
	return licenses[idx], nil
}

func newFetcher() *fetch.Fetcher {
	return &fetch.Fetcher{
		PageSize: pageSize,
		Workers:  workers,
		Logger:   logging.Component("fetch"),
	}
}

func newJoiner() *fetch.Joiner {
	return &fetch.Joiner{
		BatchSize: fetch.DefaultBatchSize,
		Workers:   workers,
		Logger:    logging.Component("join"),
	}
}

// journalStart records a report run in the local journal. Journal
// failures are logged but never fail the export itself.
func journalStart(storeDir, licenseNumber, report string) (*store.Store, int64) {
	journal, err := store.Open(storeDir)
	if err != nil {
		logger.Warn().Err(err).Msg("run journal unavailable")
		return nil, 0
	}
	id, err := journal.StartRun(runID, licenseNumber, report)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to journal run")
		_ = journal.Close()
		return nil, 0
	}
	return journal, id
}

func journalFinish(journal *store.Store, id int64, status string, recordCount int, outputPath string, runErr error) {
	if journal == nil {
		return
	}
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := journal.FinishRun(id, status, recordCount, outputPath, errMsg); err != nil {
		logger.Warn().Err(err).Msg("failed to journal run result")
	}
	_ = journal.Close()
}
