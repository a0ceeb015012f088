package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pskel/usagebar/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()
	if cfg.PollIntervalSeconds != 600 {
		t.Errorf("PollIntervalSeconds: got %d want 600", cfg.PollIntervalSeconds)
	}
	if cfg.BackoffCap != 3 {
		t.Errorf("BackoffCap: got %d want 3", cfg.BackoffCap)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("RetentionDays: got %d want 90", cfg.RetentionDays)
	}
	if !cfg.ShowPercentages {
		t.Error("ShowPercentages should default on")
	}
	if cfg.Webserver.Enabled {
		t.Error("webserver should default off")
	}
	if cfg.Webserver.Port != 8990 || cfg.Webserver.Host != "127.0.0.1" {
		t.Errorf("webserver defaults: %+v", cfg.Webserver)
	}
	if got := cfg.PollInterval(); got != 10*time.Minute {
		t.Errorf("PollInterval: got %v want 10m", got)
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PollIntervalSeconds != 600 {
		t.Errorf("got %d want 600", cfg.PollIntervalSeconds)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"pollIntervalSeconds": 120, "webserver": {"enabled": true, "port": 9001}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollIntervalSeconds != 120 {
		t.Errorf("PollIntervalSeconds: got %d want 120", cfg.PollIntervalSeconds)
	}
	if !cfg.Webserver.Enabled || cfg.Webserver.Port != 9001 {
		t.Errorf("webserver override lost: %+v", cfg.Webserver)
	}
	// Fields absent from the file keep their defaults.
	if cfg.BackoffCap != 3 {
		t.Errorf("BackoffCap: got %d want 3", cfg.BackoffCap)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.Defaults()
	cfg.ShowPercentages = false
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ShowPercentages {
		t.Error("ShowPercentages toggle not persisted")
	}
}

func TestEnsureJWTSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.Defaults()

	// Webserver disabled: no secret generated, nothing written.
	if err := config.EnsureJWTSecret(path, &cfg); err != nil {
		t.Fatalf("EnsureJWTSecret: %v", err)
	}
	if cfg.Webserver.Auth.JWTSecret != "" {
		t.Error("secret generated while webserver is disabled")
	}

	cfg.Webserver.Enabled = true
	if err := config.EnsureJWTSecret(path, &cfg); err != nil {
		t.Fatalf("EnsureJWTSecret: %v", err)
	}
	secret := cfg.Webserver.Auth.JWTSecret
	if len(secret) != 64 {
		t.Fatalf("secret length: got %d want 64 hex chars", len(secret))
	}

	// The secret is persisted and stable across loads.
	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Webserver.Auth.JWTSecret != secret {
		t.Error("persisted secret does not match")
	}
	if err := config.EnsureJWTSecret(path, &reloaded); err != nil {
		t.Fatalf("EnsureJWTSecret: %v", err)
	}
	if reloaded.Webserver.Auth.JWTSecret != secret {
		t.Error("existing secret was regenerated")
	}
}
