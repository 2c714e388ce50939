package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationQueryKeyNormalizes(t *testing.T) {
	a := LocationQuery{City: "  New   York ", Country: "USA"}
	b := LocationQuery{City: "new york", Country: "usa"}
	assert.Equal(t, b.Key(), a.Key())

	withState := LocationQuery{City: "Springfield", Country: "USA", State: "Illinois"}
	withoutState := LocationQuery{City: "Springfield", Country: "USA"}
	assert.NotEqual(t, withoutState.Key(), withState.Key())
}

func TestNormalizeFillsDefaults(t *testing.T) {
	r := Request{
		Location: LocationQuery{City: "Springfield", Country: "Testland"},
		Theme:    "noir",
	}
	require.NoError(t, r.Normalize())

	assert.Equal(t, DefaultRadiusM, r.DistanceRadiusM)
	assert.Equal(t, float64(DefaultWidthIn), r.PosterWidthIn)
	assert.Equal(t, float64(DefaultHeightIn), r.PosterHeightIn)
	assert.Equal(t, DefaultDPI, r.DPI)
	assert.Equal(t, FormatPNG, r.OutputFormat)
	assert.Equal(t, ShapeRectangle, r.MapShape)
	assert.Equal(t, EffectNone, r.ArtisticEffect)
	assert.Equal(t, EnhanceNone, r.ColorEnhancement)
	assert.Equal(t, "none", r.Texture)

	assert.Equal(t, DefaultWidthIn*DefaultDPI, r.PixelWidth())
	assert.Equal(t, DefaultHeightIn*DefaultDPI, r.PixelHeight())
}

func TestNormalizeRejectsBadRequests(t *testing.T) {
	base := func() Request {
		return Request{
			Location: LocationQuery{City: "Springfield", Country: "Testland"},
			Theme:    "noir",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing city", func(r *Request) { r.Location.City = " " }},
		{"missing country", func(r *Request) { r.Location.Country = "" }},
		{"missing theme", func(r *Request) { r.Theme = "" }},
		{"radius too small", func(r *Request) { r.DistanceRadiusM = MinRadiusM - 1 }},
		{"radius too large", func(r *Request) { r.DistanceRadiusM = MaxRadiusM + 1 }},
		{"negative width", func(r *Request) { r.PosterWidthIn = -1 }},
		{"dpi too low", func(r *Request) { r.DPI = 20 }},
		{"dpi too high", func(r *Request) { r.DPI = 2400 }},
		{"bad format", func(r *Request) { r.OutputFormat = "bmp" }},
		{"bad shape", func(r *Request) { r.MapShape = "hexagon" }},
		{"bad effect", func(r *Request) { r.ArtisticEffect = "glitch" }},
		{"bad enhancement", func(r *Request) { r.ColorEnhancement = "hdr" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			assert.Error(t, r.Normalize())
		})
	}
}

func TestNewDatasetIsStructurallyComplete(t *testing.T) {
	ds := NewDataset(Point{Lat: 40, Lon: -89}, 5000)
	require.Len(t, ds.Categories, len(Categories))
	for _, c := range Categories {
		feats, ok := ds.Categories[c]
		require.True(t, ok, "category %s missing", c)
		assert.NotNil(t, feats)
	}
}

func TestFormatPredicates(t *testing.T) {
	assert.True(t, FormatPNG.Raster())
	assert.True(t, FormatJPEG.Raster())
	assert.False(t, FormatSVG.Raster())
	assert.False(t, FormatPDF.Raster())
	assert.False(t, OutputFormat("bmp").Valid())
}
