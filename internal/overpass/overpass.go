// Package overpass retrieves vector feature collections from an Overpass API
// endpoint, one independent request per feature category.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cartapress/cartapress/internal/cache"
	"github.com/cartapress/cartapress/internal/cache/keys"
	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/observability"
)

// Fetcher is the narrow data-acquisition capability. Tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, center model.Point, radiusM int, rec *fault.Recorder) (model.Dataset, error)
}

// categoryQuery holds the Overpass QL selector for one feature category.
type categoryQuery struct {
	category model.FeatureCategory
	selector string
}

// selectors per category, matching the tag sets the classifier understands.
var categoryQueries = []categoryQuery{
	{model.CategoryRoads, `way(around:%d,%f,%f)["highway"];`},
	{model.CategoryWater, `(way(around:%d,%f,%f)["natural"="water"];way(around:%d,%f,%f)["waterway"="riverbank"];)`},
	{model.CategoryParks, `(way(around:%d,%f,%f)["leisure"="park"];way(around:%d,%f,%f)["landuse"="grass"];)`},
	{model.CategoryBuildings, `way(around:%d,%f,%f)["building"];`},
	{model.CategoryRail, `way(around:%d,%f,%f)["railway"~"^(rail|subway|tram|light_rail|monorail|funicular)$"];`},
}

// Client fetches feature collections over HTTP and caches raw category
// results keyed by (center cell, radius, category).
type Client struct {
	endpoint string
	http     *http.Client
	store    cache.Store
	logger   zerolog.Logger
}

func NewClient(endpoint string, httpClient *http.Client, store cache.Store, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		store:    store,
		logger:   logger,
	}
}

// Fetch retrieves every category around center. Categories are independent:
// a failed or empty category yields an empty collection and a warning, never
// an error. The returned dataset is always structurally complete.
func (c *Client) Fetch(ctx context.Context, center model.Point, radiusM int, rec *fault.Recorder) (model.Dataset, error) {
	ds := model.NewDataset(center, radiusM)

	results := make([][]model.Feature, len(categoryQueries))
	g, gctx := errgroup.WithContext(ctx)
	for i, cq := range categoryQueries {
		g.Go(func() error {
			feats, err := c.fetchCategory(gctx, center, radiusM, cq)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rec.Warn(fault.DataFetchPartial, "category %s: %v", cq.category, err)
				c.logger.Warn().Err(err).Str("category", string(cq.category)).Msg("category fetch failed, substituting empty collection")
				return nil
			}
			results[i] = feats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Dataset{}, err
	}

	for i, cq := range categoryQueries {
		if results[i] != nil {
			ds.Categories[cq.category] = results[i]
		}
	}
	return ds, nil
}

func (c *Client) fetchCategory(ctx context.Context, center model.Point, radiusM int, cq categoryQuery) ([]model.Feature, error) {
	key := keys.Dataset(center.Lat, center.Lon, radiusM, string(cq.category))
	if payload, ok, err := c.store.Get(ctx, key); err == nil && ok {
		var feats []model.Feature
		if err := json.Unmarshal(payload, &feats); err == nil {
			c.logger.Debug().Str("category", string(cq.category)).Msg("dataset served from cache")
			return feats, nil
		}
	}

	body, err := c.query(ctx, buildQuery(cq.selector, center, radiusM))
	if err != nil {
		return nil, err
	}
	feats, err := parseElements(body, cq.category)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(feats); err == nil {
		if err := c.store.Put(ctx, key, payload); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("dataset cache write failed")
		}
	}
	return feats, nil
}

func buildQuery(selector string, center model.Point, radiusM int) string {
	n := strings.Count(selector, "%d")
	args := make([]any, 0, n*3)
	for range n {
		args = append(args, radiusM, center.Lat, center.Lon)
	}
	body := strings.TrimSuffix(fmt.Sprintf(selector, args...), ";")
	return fmt.Sprintf("[out:json][timeout:60];%s;out geom;", body)
}

func (c *Client) query(ctx context.Context, ql string) ([]byte, error) {
	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveUpstreamLatency("overpass", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("overpass status %d: %s", resp.StatusCode, b)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	Tags     map[string]string `json:"tags"`
	Geometry []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"geometry"`
}

func parseElements(body []byte, category model.FeatureCategory) ([]model.Feature, error) {
	var resp overpassResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	feats := make([]model.Feature, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if el.Type != "way" || len(el.Geometry) < 2 {
			continue
		}
		pts := make([]model.Point, len(el.Geometry))
		for i, g := range el.Geometry {
			pts[i] = model.Point{Lat: g.Lat, Lon: g.Lon}
		}
		kind := model.GeomLine
		if closedRing(pts) && polygonCategory(category) {
			kind = model.GeomPolygon
		}
		feats = append(feats, model.Feature{Kind: kind, Points: pts, Tags: el.Tags})
	}
	return feats, nil
}

func closedRing(pts []model.Point) bool {
	if len(pts) < 4 {
		return false
	}
	return pts[0] == pts[len(pts)-1]
}

// polygonCategory reports whether a closed way in this category is an area
// rather than a loop road or circular rail line.
func polygonCategory(category model.FeatureCategory) bool {
	switch category {
	case model.CategoryWater, model.CategoryParks, model.CategoryBuildings:
		return true
	default:
		return false
	}
}
