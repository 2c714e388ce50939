package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/layers"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/theme"
)

func testSheet() *theme.Stylesheet {
	sheet := &theme.Stylesheet{
		Name:       "test",
		Background: color.NRGBA{0x10, 0x10, 0x10, 0xff},
		Text:       color.NRGBA{0xf0, 0xf0, 0xf0, 0xff},
		Gradient:   color.NRGBA{0x18, 0x18, 0x18, 0xff},
		Layers:     map[layers.Key]theme.Style{},
	}
	for _, k := range layers.Order {
		sheet.Layers[k] = theme.Style{Color: color.NRGBA{0xc0, 0xc0, 0xc0, 0xff}, Width: 1.0}
	}
	return sheet
}

func testLayers() []layers.Layer {
	ds := model.NewDataset(model.Point{Lat: 40, Lon: -89}, 5000)
	ds.Categories[model.CategoryRoads] = []model.Feature{
		{Kind: model.GeomLine, Points: []model.Point{{Lat: 39.99, Lon: -89.02}, {Lat: 40.01, Lon: -88.98}}, Tags: map[string]string{"highway": "primary"}},
		{Kind: model.GeomLine, Points: []model.Point{{Lat: 39.98, Lon: -89.0}, {Lat: 40.02, Lon: -89.0}}, Tags: map[string]string{"highway": "residential"}},
	}
	ds.Categories[model.CategoryWater] = []model.Feature{
		{Kind: model.GeomPolygon, Points: []model.Point{
			{Lat: 39.995, Lon: -89.005}, {Lat: 40.005, Lon: -89.005}, {Lat: 40.005, Lon: -88.995}, {Lat: 39.995, Lon: -89.005},
		}, Tags: map[string]string{"natural": "water"}},
	}
	return layers.Build(ds)
}

func testParams() Params {
	return Params{
		Width: 300, Height: 400, DPI: 100,
		Center:  model.Point{Lat: 40, Lon: -89},
		RadiusM: 5000,
		Shape:   model.ShapeRectangle,
		City:    "Springfield",
		Country: "Testland",
	}
}

func TestRenderDimensions(t *testing.T) {
	img := Render(testLayers(), testSheet(), testParams(), fault.NewRecorder())
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestRenderDeterministic(t *testing.T) {
	a := Render(testLayers(), testSheet(), testParams(), fault.NewRecorder())
	b := Render(testLayers(), testSheet(), testParams(), fault.NewRecorder())

	var bufA, bufB bytes.Buffer
	require.NoError(t, png.Encode(&bufA, a))
	require.NoError(t, png.Encode(&bufB, b))
	assert.True(t, bytes.Equal(bufA.Bytes(), bufB.Bytes()), "identical input must produce byte-identical output")
}

func TestRenderCircleMaskClipsCorners(t *testing.T) {
	p := testParams()
	p.Shape = model.ShapeCircle
	sheet := testSheet()
	img := Render(testLayers(), sheet, p, fault.NewRecorder())

	bg := color.RGBA{sheet.Background.R, sheet.Background.G, sheet.Background.B, 0xff}
	for _, pt := range [][2]int{{1, 1}, {298, 1}} {
		assert.Equal(t, bg, img.RGBAAt(pt[0], pt[1]), "corner (%d,%d) must be background", pt[0], pt[1])
	}
}

func TestRenderDrawsAttribution(t *testing.T) {
	empty := layers.Build(model.NewDataset(model.Point{Lat: 40, Lon: -89}, 5000))
	sheet := testSheet()
	img := Render(empty, sheet, testParams(), fault.NewRecorder())

	// The attribution caption sits on its own baseline below the coordinate
	// line; some pixel in that band must carry the text color.
	text := color.RGBA{sheet.Text.R, sheet.Text.G, sheet.Text.B, 0xff}
	found := false
	for y := 376; y <= 392 && !found; y++ {
		for x := 0; x < 300; x++ {
			if img.RGBAAt(x, y) == text {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "attribution band has no text pixels")
}

func TestRenderEmptyDatasetStillCompletes(t *testing.T) {
	empty := layers.Build(model.NewDataset(model.Point{Lat: 40, Lon: -89}, 5000))
	img := Render(empty, testSheet(), testParams(), fault.NewRecorder())
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestRenderMissingFontWarnsNotFails(t *testing.T) {
	p := testParams()
	p.FontPath = "/nonexistent/font.ttf"
	rec := fault.NewRecorder()
	img := Render(testLayers(), testSheet(), p, rec)

	assert.NotNil(t, img)
	assert.True(t, rec.Has(fault.AssetMissing))
}

func TestFetchRadiusCompensatesAspect(t *testing.T) {
	assert.Equal(t, 5000, FetchRadius(5000, 100, 100))
	assert.Equal(t, 7500, FetchRadius(5000, 200, 300))
	assert.Equal(t, 7500, FetchRadius(5000, 300, 200))
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "40.0000° N / 89.0000° W", formatCoordinate(40.0, -89.0))
	assert.Equal(t, "33.8688° S / 151.2093° E", formatCoordinate(-33.8688, 151.2093))
}
