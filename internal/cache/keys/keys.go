// Package keys builds the cache keys for geocode results and feature
// datasets.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	h3 "github.com/uber/h3-go/v4"
)

// datasetRes is the H3 resolution used to bucket fetch centers. Res 10 cells
// are ~66 m across, well under the smallest allowed fetch radius, so any two
// requests sharing a key cover almost exactly the same area.
const datasetRes = 10

// Geocode returns the cache key for a normalized location tuple. The tuple is
// kept readable in the key and an xxhash suffix guards against sanitization
// collisions.
func Geocode(locationKey string) string {
	sum := xxhash.Sum64String(locationKey)
	return fmt.Sprintf("geo:%s:h=%016x", sanitize(locationKey), sum)
}

// Dataset returns the cache key for one feature category fetched around a
// center. Centers are bucketed by their fine H3 cell, so only near-identical
// centers reuse a cached fetch; a different radius or category always yields
// a different key, so a radius increase can never be served from a smaller
// cached fetch.
func Dataset(lat, lon float64, radiusM int, category string) string {
	cell := centerCell(lat, lon)
	return fmt.Sprintf("ds:%s:%d:%s", cell, radiusM, sanitize(category))
}

func centerCell(lat, lon float64) string {
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, datasetRes)
	if err != nil {
		// Out-of-range coordinates; fall back to a plain lat/lon bucket.
		return fmt.Sprintf("%.4f,%.4f", lat, lon)
	}
	return cell.String()
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '|':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
