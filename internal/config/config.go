// Package config loads usage-bar settings from a JSON file under ~/.claude,
// next to the cache and history files.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

type NotificationsConfig struct {
	Enabled bool   `json:"enabled"`
	Webhook string `json:"webhook"`
	NtfyURL string `json:"ntfy"`
}

type AuthConfig struct {
	JWTSecret       string `json:"jwtSecret"`
	RefreshTokenTTL string `json:"refreshTokenTTL"` // Go duration string
}

type TLSConfig struct {
	Mode     string `json:"mode"`     // "self-signed" or "" (disabled)
	CacheDir string `json:"cacheDir"` // defaults to ~/.claude/usage-bar-certs
}

type WebserverConfig struct {
	Enabled bool       `json:"enabled"`
	Port    int        `json:"port"`
	Host    string     `json:"host"`
	TLS     TLSConfig  `json:"tls"`
	Auth    AuthConfig `json:"auth"`
}

type Config struct {
	PollIntervalSeconds int                 `json:"pollIntervalSeconds"`
	BackoffCap          int                 `json:"backoffCap"`
	RetentionDays       int                 `json:"retentionDays"`
	ShowPercentages     bool                `json:"showPercentages"`
	LogDir              string              `json:"logDir"`
	LogLevel            string              `json:"logLevel"`
	Notifications       NotificationsConfig `json:"notifications"`
	Webserver           WebserverConfig     `json:"webserver"`
}

func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		PollIntervalSeconds: 600,
		BackoffCap:          3,
		RetentionDays:       90,
		ShowPercentages:     true,
		LogDir:              filepath.Join(home, ".claude", "usage-bar-logs"),
		LogLevel:            "info",
		Webserver: WebserverConfig{
			Enabled: false,
			Port:    8990,
			Host:    "127.0.0.1",
		},
	}
}

func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "usage-bar-config.json")
}

func CachePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "usage-bar-cache.json")
}

func DBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "usage-bar.db")
}

// PollInterval converts the configured seconds to a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Load merges the file at path over the defaults. A missing file yields pure
// defaults with no error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config back, preserving user-toggled settings like
// showPercentages across restarts.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureJWTSecret generates and persists a webserver signing secret on first
// run so tokens survive restarts.
func EnsureJWTSecret(path string, cfg *Config) error {
	if !cfg.Webserver.Enabled || cfg.Webserver.Auth.JWTSecret != "" {
		return nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	cfg.Webserver.Auth.JWTSecret = hex.EncodeToString(b)
	return Save(path, *cfg)
}
