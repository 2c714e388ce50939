// Package model holds the shared data types of the poster pipeline.
package model

import (
	"fmt"
	"strings"
	"time"
)

// LocationQuery identifies a place to resolve. Identity is the normalized
// lowercase (city, country, state) tuple.
type LocationQuery struct {
	City    string `json:"city"`
	Country string `json:"country"`
	State   string `json:"state,omitempty"`
}

// Key returns the normalized identity tuple used for cache lookups.
func (q LocationQuery) Key() string {
	parts := []string{q.City, q.Country, q.State}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(p)), " "))
	}
	return strings.Join(parts, "|")
}

func (q LocationQuery) String() string {
	if q.State != "" {
		return fmt.Sprintf("%s, %s, %s", q.City, q.State, q.Country)
	}
	return fmt.Sprintf("%s, %s", q.City, q.Country)
}

// Coordinate is a resolved location. Immutable once produced.
type Coordinate struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Source     string    `json:"source"` // "cache" or "service"
	ResolvedAt time.Time `json:"resolved_at"`
}

// FeatureCategory is one of the fetched feature groups.
type FeatureCategory string

const (
	CategoryRoads     FeatureCategory = "roads"
	CategoryWater     FeatureCategory = "water"
	CategoryParks     FeatureCategory = "parks"
	CategoryBuildings FeatureCategory = "buildings"
	CategoryRail      FeatureCategory = "rail"
)

// Categories lists every feature category in fixed order. All iteration over
// dataset collections goes through this slice so downstream output stays
// deterministic.
var Categories = []FeatureCategory{
	CategoryRoads,
	CategoryWater,
	CategoryParks,
	CategoryBuildings,
	CategoryRail,
}

type GeometryKind string

const (
	GeomLine    GeometryKind = "line"
	GeomPolygon GeometryKind = "polygon"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Feature is one tagged geometry fetched from the data source.
type Feature struct {
	Kind   GeometryKind      `json:"kind"`
	Points []Point           `json:"points"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Dataset is the feature data around a center point. It is structurally
// complete: every category key is present even when its collection is empty.
// Immutable once fetched for a given (center, radius).
type Dataset struct {
	Center     Point                         `json:"center"`
	RadiusM    int                           `json:"radius_m"`
	Categories map[FeatureCategory][]Feature `json:"categories"`
}

// NewDataset returns an empty but structurally complete dataset.
func NewDataset(center Point, radiusM int) Dataset {
	cats := make(map[FeatureCategory][]Feature, len(Categories))
	for _, c := range Categories {
		cats[c] = []Feature{}
	}
	return Dataset{Center: center, RadiusM: radiusM, Categories: cats}
}

// OutputFormat is the requested export format.
type OutputFormat string

const (
	FormatPNG  OutputFormat = "png"
	FormatJPG  OutputFormat = "jpg"
	FormatJPEG OutputFormat = "jpeg"
	FormatSVG  OutputFormat = "svg"
	FormatPDF  OutputFormat = "pdf"
)

func (f OutputFormat) Valid() bool {
	switch f {
	case FormatPNG, FormatJPG, FormatJPEG, FormatSVG, FormatPDF:
		return true
	}
	return false
}

// Raster reports whether the format is pixel based.
func (f OutputFormat) Raster() bool {
	switch f {
	case FormatPNG, FormatJPG, FormatJPEG:
		return true
	}
	return false
}

// MapShape is the clipping boundary applied to the finished render.
type MapShape string

const (
	ShapeRectangle MapShape = "rectangle"
	ShapeCircle    MapShape = "circle"
	ShapeTriangle  MapShape = "triangle"
)

func (s MapShape) Valid() bool {
	switch s {
	case ShapeRectangle, ShapeCircle, ShapeTriangle:
		return true
	}
	return false
}

// ArtisticEffect is the closed set of deterministic image filters.
type ArtisticEffect string

const (
	EffectNone         ArtisticEffect = "none"
	EffectWatercolor   ArtisticEffect = "watercolor"
	EffectPencilSketch ArtisticEffect = "pencil_sketch"
	EffectOilPainting  ArtisticEffect = "oil_painting"
	EffectVintage      ArtisticEffect = "vintage"
)

func (e ArtisticEffect) Valid() bool {
	switch e {
	case EffectNone, EffectWatercolor, EffectPencilSketch, EffectOilPainting, EffectVintage:
		return true
	}
	return false
}

// ColorEnhancement is the closed set of palette adjustments.
type ColorEnhancement string

const (
	EnhanceNone       ColorEnhancement = "none"
	EnhancePalette    ColorEnhancement = "intelligent_palette"
	EnhanceGeographic ColorEnhancement = "geographic_colors"
	EnhanceSpring     ColorEnhancement = "seasonal_spring"
	EnhanceSummer     ColorEnhancement = "seasonal_summer"
	EnhanceAutumn     ColorEnhancement = "seasonal_autumn"
	EnhanceWinter     ColorEnhancement = "seasonal_winter"
)

func (e ColorEnhancement) Valid() bool {
	switch e {
	case EnhanceNone, EnhancePalette, EnhanceGeographic,
		EnhanceSpring, EnhanceSummer, EnhanceAutumn, EnhanceWinter:
		return true
	}
	return false
}

// Request is a single poster generation request.
type Request struct {
	Location         LocationQuery     `json:"location"`
	Theme            string            `json:"theme"`
	DistanceRadiusM  int               `json:"distanceRadius"`
	PosterWidthIn    float64           `json:"posterWidth"`
	PosterHeightIn   float64           `json:"posterHeight"`
	DPI              int               `json:"dpi,omitempty"`
	OutputFormat     OutputFormat      `json:"outputFormat"`
	Font             string            `json:"font,omitempty"`
	Texture          string            `json:"texture,omitempty"` // "" or "none" disables
	MapShape         MapShape          `json:"mapShape,omitempty"`
	ArtisticEffect   ArtisticEffect    `json:"artisticEffect,omitempty"`
	ColorEnhancement ColorEnhancement  `json:"colorEnhancement,omitempty"`
	Season           string            `json:"season,omitempty"`
	StyleOverrides   map[string]string `json:"perLayerStyleOverrides,omitempty"`
	CountryLabel     string            `json:"countryLabel,omitempty"`
}

const (
	DefaultDPI      = 300
	MinRadiusM      = 1000
	MaxRadiusM      = 50000
	DefaultRadiusM  = 12000
	DefaultWidthIn  = 12
	DefaultHeightIn = 16
)

// Normalize fills defaults and validates bounded fields.
func (r *Request) Normalize() error {
	if strings.TrimSpace(r.Location.City) == "" || strings.TrimSpace(r.Location.Country) == "" {
		return fmt.Errorf("location city and country are required")
	}
	if r.DistanceRadiusM == 0 {
		r.DistanceRadiusM = DefaultRadiusM
	}
	if r.DistanceRadiusM < MinRadiusM || r.DistanceRadiusM > MaxRadiusM {
		return fmt.Errorf("distanceRadius %d out of range [%d, %d]", r.DistanceRadiusM, MinRadiusM, MaxRadiusM)
	}
	if r.PosterWidthIn == 0 {
		r.PosterWidthIn = DefaultWidthIn
	}
	if r.PosterHeightIn == 0 {
		r.PosterHeightIn = DefaultHeightIn
	}
	if r.PosterWidthIn <= 0 || r.PosterHeightIn <= 0 {
		return fmt.Errorf("poster dimensions must be positive")
	}
	if r.DPI == 0 {
		r.DPI = DefaultDPI
	}
	if r.DPI < 30 || r.DPI > 1200 {
		return fmt.Errorf("dpi %d out of range [30, 1200]", r.DPI)
	}
	if r.OutputFormat == "" {
		r.OutputFormat = FormatPNG
	}
	if !r.OutputFormat.Valid() {
		return fmt.Errorf("unsupported output format %q", r.OutputFormat)
	}
	if r.MapShape == "" {
		r.MapShape = ShapeRectangle
	}
	if !r.MapShape.Valid() {
		return fmt.Errorf("unsupported map shape %q", r.MapShape)
	}
	if r.ArtisticEffect == "" {
		r.ArtisticEffect = EffectNone
	}
	if !r.ArtisticEffect.Valid() {
		return fmt.Errorf("unsupported artistic effect %q", r.ArtisticEffect)
	}
	if r.ColorEnhancement == "" {
		r.ColorEnhancement = EnhanceNone
	}
	if !r.ColorEnhancement.Valid() {
		return fmt.Errorf("unsupported color enhancement %q", r.ColorEnhancement)
	}
	if r.Texture == "" {
		r.Texture = "none"
	}
	if r.Theme == "" {
		return fmt.Errorf("theme is required")
	}
	return nil
}

// PixelWidth returns the raster width for the request.
func (r Request) PixelWidth() int { return int(r.PosterWidthIn * float64(r.DPI)) }

// PixelHeight returns the raster height for the request.
func (r Request) PixelHeight() int { return int(r.PosterHeightIn * float64(r.DPI)) }

// Result is the outcome of a completed generation run.
type Result struct {
	Path       string        `json:"path"`
	Coordinate Coordinate    `json:"coordinate"`
	Theme      string        `json:"theme"`
	Warnings   []string      `json:"warnings,omitempty"`
	Elapsed    time.Duration `json:"-"`
}

// Stage is an advisory progress milestone.
type Stage string

const (
	StageFetchStart     Stage = "fetch-start"
	StageDataDownloaded Stage = "data-downloaded"
	StageProcessing     Stage = "processing"
	StageRendering      Stage = "rendering"
	StageSaving         Stage = "saving"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// ProgressFunc receives milestone signals. Never part of the correctness
// contract; a nil ProgressFunc is always allowed.
type ProgressFunc func(Stage)
