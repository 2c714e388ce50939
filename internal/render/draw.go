package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/cartapress/cartapress/internal/model"
)

// fillPolygon rasterizes a closed ring with the even-odd fill of the
// vector rasterizer.
func fillPolygon(dst *image.RGBA, pts []model.Point, proj projector, c color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	r := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())
	x, y := proj.toPixel(pts[0])
	r.MoveTo(x, y)
	for _, pt := range pts[1:] {
		x, y = proj.toPixel(pt)
		r.LineTo(x, y)
	}
	r.ClosePath()
	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// strokeLine draws a polyline as a chain of oriented quads with circular
// caps at the joints. Quads instead of a proper stroker keeps the geometry
// trivially deterministic.
func strokeLine(dst *image.RGBA, pts []model.Point, proj projector, c color.NRGBA, widthPx float64) {
	if len(pts) < 2 || widthPx <= 0 {
		return
	}
	half := widthPx / 2
	r := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())

	px := make([][2]float64, len(pts))
	for i, pt := range pts {
		x, y := proj.toPixel(pt)
		px[i] = [2]float64{float64(x), float64(y)}
	}

	for i := 0; i < len(px)-1; i++ {
		ax, ay := px[i][0], px[i][1]
		bx, by := px[i+1][0], px[i+1][1]
		dx, dy := bx-ax, by-ay
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// Unit normal.
		nx, ny := -dy/length*half, dx/length*half

		r.MoveTo(float32(ax+nx), float32(ay+ny))
		r.LineTo(float32(bx+nx), float32(by+ny))
		r.LineTo(float32(bx-nx), float32(by-ny))
		r.LineTo(float32(ax-nx), float32(ay-ny))
		r.ClosePath()
	}
	for _, p := range px {
		appendCircle(r, p[0], p[1], half)
	}
	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// appendCircle approximates a circle with a fixed 16-gon; joints are small
// enough that the approximation is invisible at print resolution.
func appendCircle(r *vector.Rasterizer, cx, cy, radius float64) {
	if radius <= 0 {
		return
	}
	// Wound the same way as the segment quads so overlapping coverage
	// accumulates instead of canceling.
	const segments = 16
	r.MoveTo(float32(cx+radius), float32(cy))
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		r.LineTo(float32(cx+radius*math.Cos(a)), float32(cy-radius*math.Sin(a)))
	}
	r.ClosePath()
}

// drawHLine paints a horizontal rule, used for the title divider.
func drawHLine(dst *image.RGBA, x0, x1, y, thickness int, c color.NRGBA) {
	rect := image.Rect(x0, y-thickness/2, x1, y-thickness/2+thickness)
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// verticalGradient blends the bottom band of the canvas toward the gradient
// color so labels sit on a calm field whatever the map density.
func verticalGradient(dst *image.RGBA, c color.NRGBA, fromFrac float64) {
	b := dst.Bounds()
	start := int(float64(b.Dy()) * fromFrac)
	span := b.Dy() - start
	if span <= 0 {
		return
	}
	for y := start; y < b.Dy(); y++ {
		alpha := float64(y-start) / float64(span)
		for x := b.Min.X; x < b.Max.X; x++ {
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = blendChannel(dst.Pix[i+0], c.R, alpha)
			dst.Pix[i+1] = blendChannel(dst.Pix[i+1], c.G, alpha)
			dst.Pix[i+2] = blendChannel(dst.Pix[i+2], c.B, alpha)
		}
	}
}

func blendChannel(base, over uint8, alpha float64) uint8 {
	v := float64(base)*(1-alpha) + float64(over)*alpha
	return uint8(math.Round(v))
}
