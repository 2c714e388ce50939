package render

import (
	"image"
	"image/color"
	"math"

	"github.com/cartapress/cartapress/internal/model"
)

// applyMask clips the finished geometry to the requested shape by painting
// everything outside the boundary with the background color. Rectangle is a
// no-op.
func applyMask(dst *image.RGBA, shape model.MapShape, bg color.NRGBA) {
	switch shape {
	case model.ShapeCircle:
		applyCircleMask(dst, bg)
	case model.ShapeTriangle:
		applyTriangleMask(dst, bg)
	}
}

func applyCircleMask(dst *image.RGBA, bg color.NRGBA) {
	b := dst.Bounds()
	cx := float64(b.Dx()) / 2
	cy := float64(b.Dy()) / 2
	radius := math.Min(cx, cy) * 0.96

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy > radius*radius {
				dst.SetRGBA(x, y, color.RGBA{bg.R, bg.G, bg.B, 0xff})
			}
		}
	}
}

// applyTriangleMask keeps an isoceles triangle with the apex at the top
// center and the base along the bottom edge.
func applyTriangleMask(dst *image.RGBA, bg color.NRGBA) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	ax, ay := w/2, h*0.02
	bx, by := w*0.02, h*0.98
	cx, cy := w*0.98, h*0.98

	side := func(px, py, x0, y0, x1, y1 float64) float64 {
		return (px-x1)*(y0-y1) - (x0-x1)*(py-y1)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			d1 := side(px, py, ax, ay, bx, by)
			d2 := side(px, py, bx, by, cx, cy)
			d3 := side(px, py, cx, cy, ax, ay)
			neg := d1 < 0 || d2 < 0 || d3 < 0
			pos := d1 > 0 || d2 > 0 || d3 > 0
			if neg && pos {
				dst.SetRGBA(x, y, color.RGBA{bg.R, bg.G, bg.B, 0xff})
			}
		}
	}
}
