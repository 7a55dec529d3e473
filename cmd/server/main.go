package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bcnelson/yatube/internal/api"
	"github.com/bcnelson/yatube/internal/auth"
	"github.com/bcnelson/yatube/internal/config"
	"github.com/bcnelson/yatube/internal/logging"
	"github.com/bcnelson/yatube/internal/service"
	"github.com/bcnelson/yatube/internal/storage/sql"
	"github.com/bcnelson/yatube/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if dir := sqliteDir(cfg.Database.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	secret, err := cfg.Session.SecretBytes()
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionManager(secret, cfg.Session.Duration, cfg.Session.Secure)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var oidc web.OIDCAuthenticator
	if cfg.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(ctx,
			cfg.OIDC.IssuerURL,
			cfg.OIDC.ClientID,
			cfg.OIDC.ClientSecret,
			cfg.OIDC.RedirectURL,
			cfg.OIDC.GetScopes(),
			cfg.OIDC.GetAllowedDomains(),
		)
		if err != nil {
			return err
		}
		oidc = provider
		logger.Info("oidc login enabled", "issuer", cfg.OIDC.IssuerURL)
	}

	router := api.NewRouter(api.Deps{
		Store:        store,
		Posts:        service.NewPostService(store, cfg.Blog.PostsPerPage, logger),
		Users:        service.NewUserService(store, logger),
		Sessions:     sessions,
		OIDC:         oidc,
		BootstrapKey: cfg.Server.BootstrapAPIKey,
		Logger:       logger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting yatube", "addr", "http://"+cfg.Server.Addr(), "db_driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// sqliteDir returns the directory holding a file based SQLite database.
func sqliteDir(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
