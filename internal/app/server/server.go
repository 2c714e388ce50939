// Package server exposes the poster pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/app"
	"github.com/cartapress/cartapress/internal/config"
	"github.com/cartapress/cartapress/internal/health"
	imw "github.com/cartapress/cartapress/internal/middleware"
)

// NewRouter builds the HTTP routes over an assembled application graph.
func NewRouter(a *app.App, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(imw.Recover(logger))
	r.Use(imw.Logging(logger))
	r.Use(imw.CORS())

	h := &handlers{app: a, logger: logger}

	r.Get("/healthz", health.Liveness())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/themes", h.listThemes)
	r.Post("/generate", h.generate)

	return r
}

// Run serves the API until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg config.Config, a *app.App, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(a, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Generation runs fetch upstream data and rasterize at print DPI, so
		// the write timeout is generous.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("http listen")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
