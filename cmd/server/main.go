package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/solarimport/internal/config"
	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/importer/schemas" // registers built-in schemas
	"github.com/JonMunkholm/solarimport/internal/importjob"
	"github.com/JonMunkholm/solarimport/internal/logging"
	"github.com/JonMunkholm/solarimport/internal/store"
	"github.com/JonMunkholm/solarimport/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	repo, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("store ready", "driver", cfg.Database.Driver)

	registry := importer.Default()
	if cfg.Schemas.Dir != "" {
		n, err := schemas.LoadDir(registry, cfg.Schemas.Dir)
		if err != nil {
			slog.Error("failed to load schema files", "dir", cfg.Schemas.Dir, "loaded", n, "error", err)
			os.Exit(1)
		}
		slog.Info("schema files loaded", "dir", cfg.Schemas.Dir, "count", n)
	}
	slog.Info("schemas registered", "count", registry.Count())
	for _, s := range registry.All() {
		slog.Debug("schema", "id", s.ID, "target", s.TargetModel, "fields", len(s.Fields))
	}

	service := importjob.NewService(repo, registry, importjob.Options{
		Limits:        cfg.Import.Limits(),
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		Timeout:       cfg.Import.Timeout,
	})

	retentionCtx, stopRetention := context.WithCancel(ctx)
	defer stopRetention()
	go service.StartRetention(retentionCtx, importjob.RetentionConfig{
		MaxAge:   cfg.Import.JobRetention,
		Interval: cfg.Import.RetentionInterval,
	})

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stopRetention()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests first so no new import starts.
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
