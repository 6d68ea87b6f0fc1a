package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const defaultStoreDirName = ".t3"

// Config is the persisted CLI state: the Metrc hostname the token was
// issued for, the token itself, and the default license scope.
type Config struct {
	Hostname      string `json:"hostname"`
	Username      string `json:"username"`
	Token         string `json:"token"`
	LicenseNumber string `json:"license_number"`
	LicenseName   string `json:"license_name"`
	ClientID      string `json:"client_id"`
}

// ResolveStoreDir picks the store directory: explicit flag, then the
// T3_STORE env var, then ~/.t3.
func ResolveStoreDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("T3_STORE"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, defaultStoreDirName), nil
}

func ConfigPath(storeDir string) string {
	return filepath.Join(storeDir, "config.json")
}

func Load(storeDir string) (*Config, error) {
	path := ConfigPath(storeDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

func Save(storeDir string, cfg *Config) error {
	if err := os.MkdirAll(storeDir, 0700); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(storeDir), data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func ApplyEnv(cfg *Config) {
	if env := os.Getenv("T3_HOSTNAME"); env != "" {
		cfg.Hostname = env
	}
	if env := os.Getenv("T3_USERNAME"); env != "" {
		cfg.Username = env
	}
	if env := os.Getenv("T3_TOKEN"); env != "" {
		cfg.Token = env
	}
	if env := os.Getenv("T3_LICENSE"); env != "" {
		cfg.LicenseNumber = env
	}
}

// ValidateAuth checks that a run can make authenticated calls.
func (c *Config) ValidateAuth() error {
	if c.Token == "" {
		return fmt.Errorf("not authenticated. Run 't3 login' or set T3_TOKEN")
	}
	return nil
}

// NormalizeHostname reduces a pasted Metrc URL to the bare hostname the
// credentials endpoint expects ("https://mo.metrc.com/log-in" ->
// "mo.metrc.com").
func NormalizeHostname(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		if idx := strings.IndexByte(raw, '/'); idx >= 0 {
			raw = raw[:idx]
		}
		return strings.ToLower(raw)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(raw)
	}
	return strings.ToLower(parsed.Hostname())
}
