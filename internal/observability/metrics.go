// Package observability exposes Prometheus metrics for the pipeline.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_cache_results_total",
			Help: "Cache lookups by store and outcome.",
		},
		[]string{"store", "outcome"},
	)

	geocodeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_geocode_calls_total",
			Help: "Outbound geocoding calls by outcome.",
		},
		[]string{"outcome"},
	)

	geocodeRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poster_geocode_retries_total",
			Help: "Geocoding attempts retried after a transient failure.",
		},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poster_upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream"},
	)

	postersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_generations_total",
			Help: "Completed generation runs by outcome kind.",
		},
		[]string{"outcome"},
	)

	renderSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poster_render_duration_seconds",
			Help:    "Time spent in the compositor per run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_cache_invalidations_total",
			Help: "Cache invalidation events consumed, by scope and outcome.",
		},
		[]string{"scope", "outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poster_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poster_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func IncCacheHit(store string)  { cacheResults.WithLabelValues(store, "hit").Inc() }
func IncCacheMiss(store string) { cacheResults.WithLabelValues(store, "miss").Inc() }

func IncGeocode(outcome string) { geocodeCalls.WithLabelValues(outcome).Inc() }
func IncGeocodeRetry()          { geocodeRetries.Inc() }

func ObserveUpstreamLatency(upstream string, seconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(seconds)
}

func IncGeneration(outcome string) { postersTotal.WithLabelValues(outcome).Inc() }

func ObserveRender(seconds float64) { renderSeconds.Observe(seconds) }

func IncInvalidation(scope string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	invalidationsTotal.WithLabelValues(scope, outcome).Inc()
}

func ObserveHTTP(method, route string, status int) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func ExposeBuildInfo(version string) {
	buildInfo.WithLabelValues(version).Set(1)
}
