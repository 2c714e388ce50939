package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cartapress/cartapress/internal/app"
	"github.com/cartapress/cartapress/internal/app/server"
	"github.com/cartapress/cartapress/internal/config"
	"github.com/cartapress/cartapress/internal/invalidation"
	"github.com/cartapress/cartapress/internal/logger"
	"github.com/cartapress/cartapress/internal/observability"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "posterd",
	}, os.Stdout)

	observability.ExposeBuildInfo(Version)
	zl.Info().
		Str("addr", cfg.Addr).
		Str("version", Version).
		Str("cache_backend", cfg.CacheBackend).
		Str("themes_dir", cfg.ThemesDir).
		Msg("starting posterd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		zl.Error().Err(err).Msg("failed to assemble service")
		return 1
	}

	if cfg.Invalidation.Enabled {
		consumer := invalidation.NewConsumer(invalidation.Config{
			Brokers: cfg.Invalidation.Brokers,
			Topic:   cfg.Invalidation.Topic,
			GroupID: cfg.Invalidation.GroupID,
		}, a.Stores, zl)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				zl.Error().Err(err).Msg("invalidation consumer stopped")
			}
		}()
	}

	if err := server.Run(ctx, cfg, a, zl); err != nil {
		zl.Error().Err(err).Msg("server exited")
		return 1
	}
	return 0
}
