// Package pipeline runs one poster generation end to end: resolve, fetch,
// classify, style, render, post-process, export. Each run is sequential;
// concurrent runs share the cache and the geocoding rate limiter through
// their injected collaborators.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/effects"
	"github.com/cartapress/cartapress/internal/export"
	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/layers"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/observability"
	"github.com/cartapress/cartapress/internal/overpass"
	"github.com/cartapress/cartapress/internal/render"
	"github.com/cartapress/cartapress/internal/theme"
)

// Resolver is the location resolution capability the pipeline depends on.
type Resolver interface {
	Resolve(ctx context.Context, q model.LocationQuery) (model.Coordinate, error)
}

// Generator wires the pipeline stages together.
type Generator struct {
	resolver Resolver
	fetcher  overpass.Fetcher
	themes   *theme.Engine
	chain    *effects.Chain
	writer   *export.Writer
	fontsDir string
	artist   string
	logger   zerolog.Logger
	now      func() time.Time
}

type Deps struct {
	Resolver Resolver
	Fetcher  overpass.Fetcher
	Themes   *theme.Engine
	Chain    *effects.Chain
	Writer   *export.Writer
	FontsDir string
	Artist   string
	Logger   zerolog.Logger
}

func New(d Deps) *Generator {
	return &Generator{
		resolver: d.Resolver,
		fetcher:  d.Fetcher,
		themes:   d.Themes,
		chain:    d.Chain,
		writer:   d.Writer,
		fontsDir: d.FontsDir,
		artist:   d.Artist,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// WithClock substitutes the timestamp source, for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate runs the full pipeline. Terminal failures surface as a *fault.Failure
// with exactly one kind and leave no output file; recoverable conditions are
// absorbed into the result's warning list.
func (g *Generator) Generate(ctx context.Context, req model.Request, progress model.ProgressFunc) (model.Result, error) {
	signal := func(s model.Stage) {
		if progress != nil {
			progress(s)
		}
	}

	start := g.now()
	res, err := g.run(ctx, req, signal)
	if err != nil {
		signal(model.StageFailed)
		observability.IncGeneration("failure")
		g.logger.Error().Err(err).Str("city", req.Location.City).Msg("generation failed")
		return model.Result{}, err
	}
	res.Elapsed = g.now().Sub(start)
	signal(model.StageDone)
	observability.IncGeneration("success")
	g.logger.Info().
		Str("path", res.Path).
		Str("theme", res.Theme).
		Dur("elapsed", res.Elapsed).
		Msg("poster generated")
	return res, nil
}

func (g *Generator) run(ctx context.Context, req model.Request, signal model.ProgressFunc) (model.Result, error) {
	if err := req.Normalize(); err != nil {
		return model.Result{}, err
	}
	rec := fault.NewRecorder()

	// Theme loads before any network traffic so a bad theme fails fast.
	doc, err := g.themes.Load(req.Theme)
	if err != nil {
		return model.Result{}, err
	}

	signal(model.StageFetchStart)
	coord, err := g.resolver.Resolve(ctx, req.Location)
	if err != nil {
		return model.Result{}, err
	}

	center := model.Point{Lat: coord.Lat, Lon: coord.Lon}
	radius := render.FetchRadius(req.DistanceRadiusM, req.PixelWidth(), req.PixelHeight())
	ds, err := g.fetcher.Fetch(ctx, center, radius, rec)
	if err != nil {
		return model.Result{}, err
	}
	signal(model.StageDataDownloaded)

	signal(model.StageProcessing)
	layerList := layers.Build(ds)
	terrain := theme.DetectTerrain(ds)
	sheet, err := g.themes.Resolve(doc, theme.Context{Terrain: terrain, Season: req.Season}, req.StyleOverrides)
	if err != nil {
		return model.Result{}, fault.New(fault.ThemeLoadError, "resolve theme %q: %v", req.Theme, err)
	}

	signal(model.StageRendering)
	renderStart := g.now()
	img := render.Render(layerList, sheet, render.Params{
		Width:    req.PixelWidth(),
		Height:   req.PixelHeight(),
		DPI:      float64(req.DPI),
		Center:   center,
		RadiusM:  req.DistanceRadiusM,
		Shape:    req.MapShape,
		City:     req.Location.City,
		Country:  countryLabel(req),
		FontPath: g.fontPath(req.Font),
	}, rec)

	img = g.chain.Apply(img, effects.Options{
		Texture:     textureFor(req, sheet),
		Effect:      req.ArtisticEffect,
		Enhancement: req.ColorEnhancement,
		Terrain:     terrain,
	}, rec)
	observability.ObserveRender(g.now().Sub(renderStart).Seconds())

	signal(model.StageSaving)
	path, err := g.writer.Export(export.Job{
		Image:        img,
		Format:       req.OutputFormat,
		WidthInches:  req.PosterWidthIn,
		HeightInches: req.PosterHeightIn,
		DPI:          float64(req.DPI),
		Meta: export.Metadata{
			City:        req.Location.City,
			Country:     countryLabel(req),
			Theme:       sheet.Name,
			Coordinate:  coord,
			GeneratedAt: g.now(),
			Artist:      g.artist,
		},
	})
	if err != nil {
		return model.Result{}, err
	}

	var warnings []string
	for _, w := range rec.Warnings() {
		warnings = append(warnings, string(w.Kind)+": "+w.Message)
	}
	return model.Result{
		Path:       path,
		Coordinate: coord,
		Theme:      sheet.Name,
		Warnings:   warnings,
	}, nil
}

// textureFor picks the request texture, falling back to the theme's own
// texture reference when the request leaves it unset.
func textureFor(req model.Request, sheet *theme.Stylesheet) string {
	if req.Texture != "" && req.Texture != "none" {
		return req.Texture
	}
	if sheet.Texture != "" {
		return sheet.Texture
	}
	return "none"
}

func countryLabel(req model.Request) string {
	if req.CountryLabel != "" {
		return req.CountryLabel
	}
	return req.Location.Country
}

func (g *Generator) fontPath(font string) string {
	if font == "" || g.fontsDir == "" {
		return ""
	}
	return filepath.Join(g.fontsDir, font)
}
