// Package app assembles the poster service's dependency graph from
// configuration. Both the daemon and the CLI build the same graph so a
// poster generated either way comes out identical.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/cache"
	"github.com/cartapress/cartapress/internal/cache/filestore"
	"github.com/cartapress/cartapress/internal/cache/redisstore"
	"github.com/cartapress/cartapress/internal/config"
	"github.com/cartapress/cartapress/internal/effects"
	"github.com/cartapress/cartapress/internal/export"
	"github.com/cartapress/cartapress/internal/geocode"
	"github.com/cartapress/cartapress/internal/httpclient"
	"github.com/cartapress/cartapress/internal/overpass"
	"github.com/cartapress/cartapress/internal/pipeline"
	"github.com/cartapress/cartapress/internal/theme"
)

// datasetFrontSize bounds the in-process tier; feature datasets for a big
// radius run to a few megabytes each.
const datasetFrontSize = 64

// App is the wired service graph.
type App struct {
	Generator *pipeline.Generator
	Themes    *theme.Engine

	// Stores maps invalidation scope names to the caches they clear.
	Stores map[string]cache.Store
}

// Build constructs every component from cfg. The context is only used for
// connection checks during construction.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	geocodeStore, datasetStore, err := buildStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	outbound := httpclient.NewOutbound()

	limiter := geocode.NewLimiter(cfg.GeocodeInterval)
	nominatim := geocode.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent, outbound, logger)
	resolver := geocode.NewResolver(geocodeStore, nominatim, limiter, cfg.GeocodeAttempts, cfg.GeocodeBackoff, logger)

	fetcher := overpass.NewClient(cfg.OverpassURL, outbound, datasetStore, logger)
	themes := theme.NewEngine(cfg.ThemesDir, logger)

	gen := pipeline.New(pipeline.Deps{
		Resolver: resolver,
		Fetcher:  fetcher,
		Themes:   themes,
		Chain:    effects.NewChain(cfg.TexturesDir, logger),
		Writer:   export.NewWriter(cfg.OutputDir, logger),
		FontsDir: cfg.FontsDir,
		Artist:   "cartapress",
		Logger:   logger,
	})

	return &App{
		Generator: gen,
		Themes:    themes,
		Stores: map[string]cache.Store{
			"geocode": geocodeStore,
			"dataset": datasetStore,
		},
	}, nil
}

func buildStores(ctx context.Context, cfg config.Config) (cache.Store, cache.Store, error) {
	switch cfg.CacheBackend {
	case "file":
		geo, err := filestore.New(filepath.Join(cfg.CacheDir, "geocode"))
		if err != nil {
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		data, err := filestore.New(filepath.Join(cfg.CacheDir, "dataset"))
		if err != nil {
			return nil, nil, fmt.Errorf("dataset cache: %w", err)
		}
		return geo, cache.NewTiered(data, datasetFrontSize), nil
	case "redis":
		shared, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return shared, cache.NewTiered(shared, datasetFrontSize), nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
