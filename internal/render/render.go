// Package render composites classified, styled layers into a poster canvas.
// Rendering is deterministic: identical input produces pixel-identical
// output, which the cache and the test suite both rely on.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/layers"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/theme"
)

// Params carries everything the renderer needs beyond the layers themselves.
type Params struct {
	Width, Height int // pixels
	DPI           float64
	Center        model.Point
	RadiusM       int
	Shape         model.MapShape
	City          string
	Country       string
	FontPath      string
}

// gradientStart is the canvas height fraction where the label-band gradient
// begins.
const gradientStart = 0.72

// Render draws the layer list in its given order onto a fresh canvas,
// applies the shape mask, then places the title block. The layer slice is
// expected in global draw order; the renderer never reorders it.
func Render(layerList []layers.Layer, sheet *theme.Stylesheet, p Params, rec *fault.Recorder) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{sheet.Background.R, sheet.Background.G, sheet.Background.B, 0xff}), image.Point{}, draw.Src)

	proj := newProjector(p.Center, p.RadiusM, p.Width, p.Height)
	for _, layer := range layerList {
		style, ok := sheet.Layers[layer.Key]
		if !ok {
			continue
		}
		widthPx := style.Width * p.DPI / 100
		for _, f := range layer.Features {
			switch f.Kind {
			case model.GeomPolygon:
				fillPolygon(dst, f.Points, proj, style.Color)
			case model.GeomLine:
				strokeLine(dst, f.Points, proj, style.Color, widthPx)
			}
		}
	}

	verticalGradient(dst, sheet.Gradient, gradientStart)
	applyMask(dst, p.Shape, sheet.Background)
	drawLabels(dst, sheet, p, rec)
	return dst
}
