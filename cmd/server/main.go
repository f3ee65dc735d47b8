package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/FamilyShare/internal/adapters/http"
	"github.com/dkeye/FamilyShare/internal/adapters/rtc"
	"github.com/dkeye/FamilyShare/internal/app"
	"github.com/dkeye/FamilyShare/internal/app/orch"
	"github.com/dkeye/FamilyShare/internal/config"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/dkeye/FamilyShare/internal/storage/gormstore"
	"github.com/dkeye/FamilyShare/internal/storage/redisstore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("storage close")
		}
	}()

	hub := orch.New(
		store,
		app.PolicyByName(cfg.Hub.Backpressure),
		app.NewRateLimiter(cfg.Hub.LocationRate.Limit, cfg.Hub.LocationRate.Interval),
		orch.Options{
			EchoLocation:   cfg.Hub.EchoLocation,
			PersistTimeout: cfg.Storage.Timeout,
			ValidateSignal: rtc.Validate,
		},
	)

	r := router.SetupRouter(ctx, cfg, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("FamilyShare server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Mode == "release" {
		// JSON lines for log collectors
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "sqlite", "postgres":
		return gormstore.Open(cfg.Driver, cfg.DSN, cfg.Retention)
	case "redis":
		return redisstore.Open(ctx, cfg.RedisAddr, cfg.Retention)
	default:
		return storage.NewMemory(cfg.Retention), nil
	}
}
