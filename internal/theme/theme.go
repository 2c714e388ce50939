// Package theme loads named theme documents and resolves final per-layer
// styles. A theme file only needs to state what it changes; engine defaults
// fill every remaining canonical layer so downstream code never sees a
// missing style.
package theme

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/layers"
	"github.com/cartapress/cartapress/internal/model"
)

// Terrain is a coarse geographic classification used to pick theme variants.
type Terrain string

const (
	TerrainNone     Terrain = ""
	TerrainMountain Terrain = "mountain"
	TerrainCoastal  Terrain = "coastal"
	TerrainDesert   Terrain = "desert"
	TerrainForest   Terrain = "forest"
	TerrainUrban    Terrain = "urban"
)

// Context selects among a theme's style variants.
type Context struct {
	Terrain Terrain
	Season  string
}

// Style is the resolved visual style for one layer.
type Style struct {
	Color color.NRGBA
	Width float64
}

// Stylesheet is a fully resolved theme: every key in layers.Order has a
// style, plus the global canvas colors.
type Stylesheet struct {
	Name       string
	Background color.NRGBA
	Text       color.NRGBA
	Gradient   color.NRGBA
	Layers     map[layers.Key]Style
	Texture    string
}

// Document is the on-disk theme shape. Unknown keys are rejected at load
// time so a typo in a user-supplied file fails loudly instead of silently
// falling back to a default.
type Document struct {
	Name          string                       `json:"name"`
	Background    string                       `json:"bg"`
	Text          string                       `json:"text"`
	GradientColor string                       `json:"gradient_color"`
	Water         string                       `json:"water"`
	Parks         string                       `json:"parks"`
	Buildings     string                       `json:"buildings"`
	RoadMotorway  string                       `json:"road_motorway"`
	RoadPrimary   string                       `json:"road_primary"`
	RoadSecondary string                       `json:"road_secondary"`
	RoadTertiary  string                       `json:"road_tertiary"`
	RoadResident  string                       `json:"road_residential"`
	RoadDefault   string                       `json:"road_default"`
	Rail          string                       `json:"rail"`
	RailSubway    string                       `json:"rail_subway"`
	RailTram      string                       `json:"rail_tram"`
	RailLightRail string                       `json:"rail_light_rail"`
	Texture       string                       `json:"texture"`
	Variants      map[string]map[string]string `json:"variants"`
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// docKey maps a layer key to its document field name.
func docKey(k layers.Key) string {
	switch k.Category {
	case model.CategoryRoads:
		return "road_" + k.Subtype
	case model.CategoryRail:
		if k.Subtype == layers.SubtypeRail || k.Subtype == layers.SubtypeDefault {
			return "rail"
		}
		return "rail_" + k.Subtype
	default:
		return string(k.Category)
	}
}

// defaults is the engine fallback stylesheet. Widths are in presentation
// units, scaled by the renderer; fills carry width 0.
var defaults = map[layers.Key]Style{
	{Category: model.CategoryWater, Subtype: "water"}:                   {mustHex("#a8c8e8"), 0},
	{Category: model.CategoryParks, Subtype: "parks"}:                   {mustHex("#b8d8b8"), 0},
	{Category: model.CategoryBuildings, Subtype: "buildings"}:           {mustHex("#d0d0d0"), 0},
	{Category: model.CategoryRoads, Subtype: layers.SubtypeMotorway}:    {mustHex("#202020"), 1.2},
	{Category: model.CategoryRoads, Subtype: layers.SubtypePrimary}:     {mustHex("#303030"), 1.0},
	{Category: model.CategoryRoads, Subtype: layers.SubtypeSecondary}:   {mustHex("#404040"), 0.8},
	{Category: model.CategoryRoads, Subtype: layers.SubtypeTertiary}:    {mustHex("#505050"), 0.6},
	{Category: model.CategoryRoads, Subtype: layers.SubtypeResidential}: {mustHex("#606060"), 0.4},
	{Category: model.CategoryRoads, Subtype: layers.SubtypeDefault}:     {mustHex("#707070"), 0.4},
	{Category: model.CategoryRail, Subtype: layers.SubtypeRail}:         {mustHex("#767676"), 0.6},
	{Category: model.CategoryRail, Subtype: layers.SubtypeSubway}:       {mustHex("#8a8a8a"), 0.5},
	{Category: model.CategoryRail, Subtype: layers.SubtypeTram}:         {mustHex("#9a9a9a"), 0.4},
	{Category: model.CategoryRail, Subtype: layers.SubtypeLightRail}:    {mustHex("#9a9a9a"), 0.4},
	{Category: model.CategoryRail, Subtype: layers.SubtypeDefault}:      {mustHex("#8a8a8a"), 0.4},
}

const (
	defaultBackground = "#f8f4ec"
	defaultText       = "#2b2b2b"
)

// Engine loads and resolves themes from a directory of JSON documents.
// User-added files are picked up without code changes.
type Engine struct {
	dir    string
	logger zerolog.Logger
}

func NewEngine(dir string, logger zerolog.Logger) *Engine {
	return &Engine{dir: dir, logger: logger}
}

// List returns the available theme names in sorted order.
func (e *Engine) List() ([]string, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, fmt.Errorf("read theme dir: %w", err)
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(ent.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and validates one theme document. A missing file, malformed
// JSON, an unknown key, or an invalid color value is a terminal ThemeLoadError.
func (e *Engine) Load(name string) (*Document, error) {
	path := filepath.Join(e.dir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.New(fault.ThemeLoadError, "theme %q: %v", name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fault.New(fault.ThemeLoadError, "theme %q: %v", name, err)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	if err := validate(&doc); err != nil {
		return nil, fault.New(fault.ThemeLoadError, "theme %q: %v", name, err)
	}
	return &doc, nil
}

func validate(doc *Document) error {
	check := func(field, v string) error {
		if v != "" && !hexColor.MatchString(v) {
			return fmt.Errorf("field %s: %q is not a #rrggbb color", field, v)
		}
		return nil
	}
	fields := map[string]string{
		"bg": doc.Background, "text": doc.Text, "gradient_color": doc.GradientColor,
		"water": doc.Water, "parks": doc.Parks, "buildings": doc.Buildings,
		"road_motorway": doc.RoadMotorway, "road_primary": doc.RoadPrimary,
		"road_secondary": doc.RoadSecondary, "road_tertiary": doc.RoadTertiary,
		"road_residential": doc.RoadResident, "road_default": doc.RoadDefault,
		"rail": doc.Rail, "rail_subway": doc.RailSubway,
		"rail_tram": doc.RailTram, "rail_light_rail": doc.RailLightRail,
	}
	for f, v := range fields {
		if err := check(f, v); err != nil {
			return err
		}
	}
	for variant, kv := range doc.Variants {
		if !validVariantName(variant) {
			return fmt.Errorf("variant %q: not a known terrain or terrain:season pair", variant)
		}
		for field, v := range kv {
			if _, ok := fields[field]; !ok {
				return fmt.Errorf("variant %q: unknown field %q", variant, field)
			}
			if err := check(variant+"."+field, v); err != nil {
				return err
			}
		}
	}
	return nil
}

var knownTerrains = map[string]bool{
	string(TerrainMountain): true,
	string(TerrainCoastal):  true,
	string(TerrainDesert):   true,
	string(TerrainForest):   true,
	string(TerrainUrban):    true,
}

var knownSeasons = map[string]bool{
	"spring": true, "summer": true, "autumn": true, "winter": true,
}

// validVariantName accepts a known terrain, optionally qualified by a season.
func validVariantName(name string) bool {
	terrain, season, qualified := strings.Cut(name, ":")
	if !knownTerrains[terrain] {
		return false
	}
	return !qualified || knownSeasons[season]
}

// baseColors flattens a document into its field map for lookup by docKey.
func baseColors(doc *Document) map[string]string {
	return map[string]string{
		"water": doc.Water, "parks": doc.Parks, "buildings": doc.Buildings,
		"road_motorway": doc.RoadMotorway, "road_primary": doc.RoadPrimary,
		"road_secondary": doc.RoadSecondary, "road_tertiary": doc.RoadTertiary,
		"road_residential": doc.RoadResident, "road_default": doc.RoadDefault,
		"rail": doc.Rail, "rail_subway": doc.RailSubway,
		"rail_tram": doc.RailTram, "rail_light_rail": doc.RailLightRail,
	}
}

// Resolve produces the final stylesheet. Precedence, highest first: explicit
// per-layer override from the request, then the variant selected by the
// geographic context, then the theme base value, then the engine default.
// Identical (document, context, overrides) input resolves identically.
func (e *Engine) Resolve(doc *Document, ctx Context, overrides map[string]string) (*Stylesheet, error) {
	base := baseColors(doc)

	variant := map[string]string{}
	if ctx.Terrain != TerrainNone {
		if kv, ok := doc.Variants[string(ctx.Terrain)]; ok {
			variant = kv
		}
	}
	if ctx.Season != "" {
		if kv, ok := doc.Variants[string(ctx.Terrain)+":"+ctx.Season]; ok {
			merged := make(map[string]string, len(variant)+len(kv))
			for k, v := range variant {
				merged[k] = v
			}
			for k, v := range kv {
				merged[k] = v
			}
			variant = merged
		}
	}

	pick := func(field, fallback string) (color.NRGBA, error) {
		for _, src := range []map[string]string{overrides, variant, base} {
			if v, ok := src[field]; ok && v != "" {
				if !hexColor.MatchString(v) {
					return color.NRGBA{}, fmt.Errorf("field %s: %q is not a #rrggbb color", field, v)
				}
				return parseHex(v), nil
			}
		}
		return parseHex(fallback), nil
	}

	sheet := &Stylesheet{
		Name:    doc.Name,
		Layers:  make(map[layers.Key]Style, len(layers.Order)),
		Texture: doc.Texture,
	}

	var err error
	if sheet.Background, err = pick("bg", defaultBackground); err != nil {
		return nil, err
	}
	if sheet.Text, err = pick("text", defaultText); err != nil {
		return nil, err
	}
	if sheet.Gradient, err = pick("gradient_color", defaultBackground); err != nil {
		return nil, err
	}

	for _, k := range layers.Order {
		def := defaults[k]
		c, err := pick(docKey(k), hexString(def.Color))
		if err != nil {
			return nil, err
		}
		sheet.Layers[k] = Style{Color: c, Width: def.Width}
	}
	return sheet, nil
}

// DetectTerrain classifies the dataset by its dominant feature mix. The
// heuristic is coarse on purpose; it only selects among theme variants.
func DetectTerrain(ds model.Dataset) Terrain {
	water := len(ds.Categories[model.CategoryWater])
	parks := len(ds.Categories[model.CategoryParks])
	buildings := len(ds.Categories[model.CategoryBuildings])
	roads := len(ds.Categories[model.CategoryRoads])

	total := water + parks + buildings + roads
	if total == 0 {
		return TerrainNone
	}
	switch {
	case water*4 >= total:
		return TerrainCoastal
	case parks*3 >= total:
		return TerrainForest
	case buildings*2 >= total:
		return TerrainUrban
	case roads < 10 && buildings < 5:
		return TerrainDesert
	default:
		return TerrainNone
	}
}

func parseHex(s string) color.NRGBA {
	r, _ := strconv.ParseUint(s[1:3], 16, 8)
	g, _ := strconv.ParseUint(s[3:5], 16, 8)
	b, _ := strconv.ParseUint(s[5:7], 16, 8)
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}
}

func hexString(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func mustHex(s string) color.NRGBA {
	if !hexColor.MatchString(s) {
		panic("bad default color " + s)
	}
	return parseHex(s)
}
