// Package geocode resolves location queries to coordinates through a cache,
// a process-wide rate limiter, and a retrying call to the geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/cache"
	"github.com/cartapress/cartapress/internal/cache/keys"
	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/observability"
)

// Resolver turns a location query into a coordinate. Lookups hit the cache
// first; on a miss the geocoding service is called through the shared rate
// limiter, with retry and backoff for transient failures. The cache is
// written only after a fresh successful resolution.
type Resolver struct {
	store    cache.Store
	svc      Service
	limiter  *Limiter
	attempts int
	backoff  time.Duration
	logger   zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewResolver(store cache.Store, svc Service, limiter *Limiter, attempts int, backoff time.Duration, logger zerolog.Logger) *Resolver {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Resolver{
		store:    store,
		svc:      svc,
		limiter:  limiter,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// WithClock is used by tests to substitute a fake clock.
func (r *Resolver) WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) *Resolver {
	if now != nil {
		r.now = now
	}
	if sleep != nil {
		r.sleep = sleep
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, q model.LocationQuery) (model.Coordinate, error) {
	key := keys.Geocode(q.Key())

	if payload, ok, err := r.store.Get(ctx, key); err == nil && ok {
		var coord model.Coordinate
		if err := json.Unmarshal(payload, &coord); err == nil {
			coord.Source = "cache"
			r.logger.Debug().Str("query", q.String()).Msg("coordinate served from cache")
			return coord, nil
		}
		// Undecodable entry is treated as never cached.
		r.logger.Warn().Str("key", key).Msg("dropping unreadable cache entry")
	} else if err != nil {
		// A broken cache store never blocks resolution.
		r.logger.Warn().Err(err).Msg("geocode cache read failed")
	}

	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			observability.IncGeocodeRetry()
			// Attempt-scaled backoff before re-entering the limiter queue.
			if err := r.sleep(ctx, r.backoff*time.Duration(attempt)); err != nil {
				return model.Coordinate{}, err
			}
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return model.Coordinate{}, err
		}

		coord, err := r.svc.Lookup(ctx, q)
		if err == nil {
			coord.Source = "service"
			coord.ResolvedAt = r.now().UTC()
			r.put(ctx, key, coord)
			return coord, nil
		}

		if fault.KindOf(err) == fault.LocationNotFound {
			return model.Coordinate{}, err
		}
		lastErr = err
		r.logger.Warn().Err(err).Int("attempt", attempt+1).Str("query", q.String()).Msg("geocode attempt failed")
	}

	return model.Coordinate{}, fault.New(fault.ServiceUnavailable,
		"geocoding failed after %d attempts: %v", r.attempts, lastErr)
}

func (r *Resolver) put(ctx context.Context, key string, coord model.Coordinate) {
	payload, err := json.Marshal(coord)
	if err != nil {
		return
	}
	if err := r.store.Put(ctx, key, payload); err != nil {
		// Cache failure is not critical.
		r.logger.Warn().Err(err).Msg(fmt.Sprintf("geocode cache write failed for %s", key))
	}
}
