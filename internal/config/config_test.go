package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeHostname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mo.metrc.com", "mo.metrc.com"},
		{"MO.Metrc.COM", "mo.metrc.com"},
		{"  mo.metrc.com  ", "mo.metrc.com"},
		{"https://mo.metrc.com", "mo.metrc.com"},
		{"https://mo.metrc.com/log-in", "mo.metrc.com"},
		{"http://mi.metrc.com:443/path", "mi.metrc.com"},
		{"mo.metrc.com/log-in", "mo.metrc.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHostname(tt.in); got != tt.want {
			t.Errorf("NormalizeHostname(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("Load() = %+v, want zero config", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	want := &Config{
		Hostname:      "mo.metrc.com",
		Username:      "alex",
		Token:         "tok123",
		LicenseNumber: "LIC-1",
		LicenseName:   "Test Facility",
		ClientID:      "abc",
	}

	if err := Save(dir, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(ConfigPath(dir))
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *got != *want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("T3_HOSTNAME", "mi.metrc.com")
	t.Setenv("T3_TOKEN", "envtok")
	t.Setenv("T3_LICENSE", "LIC-ENV")

	cfg := &Config{Hostname: "mo.metrc.com", Username: "alex"}
	ApplyEnv(cfg)

	if cfg.Hostname != "mi.metrc.com" {
		t.Errorf("Hostname = %q, want env override", cfg.Hostname)
	}
	if cfg.Token != "envtok" || cfg.LicenseNumber != "LIC-ENV" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Username != "alex" {
		t.Errorf("Username = %q, want alex untouched", cfg.Username)
	}
}

func TestResolveStoreDir(t *testing.T) {
	if got, err := ResolveStoreDir("/tmp/custom"); err != nil || got != "/tmp/custom" {
		t.Errorf("ResolveStoreDir(override) = %q, %v", got, err)
	}

	t.Setenv("T3_STORE", "/tmp/from-env")
	if got, err := ResolveStoreDir(""); err != nil || got != "/tmp/from-env" {
		t.Errorf("ResolveStoreDir(env) = %q, %v", got, err)
	}
}

func TestValidateAuth(t *testing.T) {
	if err := (&Config{}).ValidateAuth(); err == nil {
		t.Error("expected error without token")
	}
	if err := (&Config{Token: "tok"}).ValidateAuth(); err != nil {
		t.Errorf("unexpected error with token: %v", err)
	}
}
