package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/pskel/usagebar/internal/applog"
	"github.com/pskel/usagebar/internal/cache"
	"github.com/pskel/usagebar/internal/config"
	"github.com/pskel/usagebar/internal/engine"
	"github.com/pskel/usagebar/internal/fetcher"
	"github.com/pskel/usagebar/internal/history"
	"github.com/pskel/usagebar/internal/notify"
	"github.com/pskel/usagebar/internal/ui"
	"github.com/pskel/usagebar/internal/webserver"
)

func openDB() (*history.DB, error) {
	dbPath := config.DBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func main() {
	// adduser/passwd manage accounts for the remote API.
	if len(os.Args) >= 3 && os.Args[1] == "adduser" {
		username := os.Args[2]
		fmt.Printf("Password for %s: ", username)
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		hash, err := bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		store, err := openDB()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		if _, err := store.CreateAccount(username, string(hash)); err != nil {
			fmt.Fprintf(os.Stderr, "error creating account: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Account created: %s\n", username)
		return
	}

	if len(os.Args) >= 3 && os.Args[1] == "passwd" {
		username := os.Args[2]
		fmt.Printf("New password for %s: ", username)
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		hash, err := bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		store, err := openDB()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		acc, err := store.GetAccountByUsername(username)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: user not found: %v\n", err)
			os.Exit(1)
		}
		store.UpdateAccountPassword(acc.ID, string(hash))
		store.DeleteRefreshTokensByAccount(acc.ID)
		fmt.Printf("Password updated: %s (all sessions invalidated)\n", username)
		return
	}

	if !fetcher.IsAvailable() {
		fmt.Fprintln(os.Stderr, "error: tmux is required but not found in PATH")
		os.Exit(1)
	}

	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load config: %v\n", err)
		cfg = config.Defaults()
	}

	if err := config.EnsureJWTSecret(cfgPath, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not persist JWT secret: %v\n", err)
	}

	logger, logCloser, err := applog.Init(applog.InitConfig{
		LogDir:   cfg.LogDir,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not init log file: %v\n", err)
		logger = slog.Default() // falls back to default (stderr)
	} else {
		defer logCloser.Close()
	}

	store, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if deleted, err := store.Prune(cfg.RetentionDays); err != nil {
		logger.Warn("history prune failed", "err", err)
	} else if deleted > 0 {
		logger.Info("history pruned", "rows", deleted)
	}

	eng := engine.New(fetcher.New(logger), engine.Config{
		Interval:   cfg.PollInterval(),
		BackoffCap: cfg.BackoffCap,
	}, logger)
	eng.SetCache(cache.New(config.CachePath()))
	eng.SetHistory(store)

	// Seed from the cache so the bar shows data before the first poll lands.
	if snap, ok, err := cache.New(config.CachePath()).Load(); err != nil {
		logger.Warn("cache load failed", "err", err)
	} else if ok {
		eng.Seed(snap)
	}

	app := ui.NewApp(eng, store, cfg, cfgPath, logger)
	eng.AddSink(app)
	eng.AddSink(notify.New(notify.Config(cfg.Notifications), logger))

	srv := webserver.New(eng, store, webserver.Config{
		Enabled: cfg.Webserver.Enabled,
		Port:    cfg.Webserver.Port,
		Host:    cfg.Webserver.Host,
		TLS: webserver.TLSConfig{
			Mode:     cfg.Webserver.TLS.Mode,
			CacheDir: cfg.Webserver.TLS.CacheDir,
		},
		Auth: webserver.AuthConfig{
			JWTSecret:       cfg.Webserver.Auth.JWTSecret,
			RefreshTokenTTL: cfg.Webserver.Auth.RefreshTokenTTL,
		},
	}, logger)
	eng.AddSink(srv)
	if err := srv.Start(); err != nil {
		logger.Error("webserver start failed", "err", err)
	}

	eng.Start()
	defer eng.Stop()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
