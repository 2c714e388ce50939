package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/observability"
)

// Service is the narrow geocoding capability. Implementations translate a
// location query into a coordinate; tests substitute fakes.
type Service interface {
	Lookup(ctx context.Context, q model.LocationQuery) (model.Coordinate, error)
}

// Nominatim calls a Nominatim-compatible search endpoint.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    zerolog.Logger
}

func NewNominatim(baseURL, userAgent string, client *http.Client, logger zerolog.Logger) *Nominatim {
	if client == nil {
		client = http.DefaultClient
	}
	return &Nominatim{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    client,
		logger:    logger,
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Lookup(ctx context.Context, q model.LocationQuery) (model.Coordinate, error) {
	params := url.Values{}
	params.Set("city", q.City)
	params.Set("country", q.Country)
	if q.State != "" {
		params.Set("state", q.State)
	}
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	u := n.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	observability.ObserveUpstreamLatency("geocoder", time.Since(start).Seconds())
	if err != nil {
		observability.IncGeocode("transport_error")
		return model.Coordinate{}, fault.New(fault.ServiceUnavailable, "geocoder request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		observability.IncGeocode("rate_limited")
		return model.Coordinate{}, fault.New(fault.ServiceUnavailable, "geocoder rate limited")
	case resp.StatusCode >= 500:
		observability.IncGeocode("upstream_error")
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return model.Coordinate{}, fault.New(fault.ServiceUnavailable, "geocoder status %d: %s", resp.StatusCode, b)
	case resp.StatusCode != http.StatusOK:
		observability.IncGeocode("bad_request")
		return model.Coordinate{}, fault.New(fault.LocationNotFound, "geocoder status %d for %s", resp.StatusCode, q)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		observability.IncGeocode("decode_error")
		return model.Coordinate{}, fault.New(fault.ServiceUnavailable, "geocoder response decode: %v", err)
	}
	if len(results) == 0 {
		observability.IncGeocode("not_found")
		return model.Coordinate{}, fault.New(fault.LocationNotFound, "no results for %s", q)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.Coordinate{}, fault.New(fault.ServiceUnavailable, "geocoder returned bad latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.Coordinate{}, fault.New(fault.ServiceUnavailable, "geocoder returned bad longitude %q", results[0].Lon)
	}

	observability.IncGeocode("ok")
	n.logger.Debug().
		Str("query", q.String()).
		Str("display_name", results[0].DisplayName).
		Float64("lat", lat).Float64("lon", lon).
		Msg("geocoded")

	return model.Coordinate{Lat: lat, Lon: lon}, nil
}
