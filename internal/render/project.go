package render

import (
	"math"

	"github.com/cartapress/cartapress/internal/model"
)

const metersPerDegreeLat = 111320.0

// projector maps geographic coordinates onto canvas pixels using an
// equirectangular projection centered on the request coordinate. The scale
// is chosen so the radius window fills the longer canvas edge; content
// beyond the shorter edge is cropped inward.
type projector struct {
	center     model.Point
	pxPerM     float64
	mPerDegLat float64
	mPerDegLon float64
	w, h       float64
}

func newProjector(center model.Point, radiusM int, width, height int) projector {
	longer := math.Max(float64(width), float64(height))
	return projector{
		center:     center,
		pxPerM:     longer / (2 * float64(radiusM)),
		mPerDegLat: metersPerDegreeLat,
		mPerDegLon: metersPerDegreeLat * math.Cos(center.Lat*math.Pi/180),
		w:          float64(width),
		h:          float64(height),
	}
}

// toPixel returns canvas coordinates; y grows downward.
func (p projector) toPixel(pt model.Point) (float32, float32) {
	dx := (pt.Lon - p.center.Lon) * p.mPerDegLon * p.pxPerM
	dy := (pt.Lat - p.center.Lat) * p.mPerDegLat * p.pxPerM
	return float32(p.w/2 + dx), float32(p.h/2 - dy)
}

// FetchRadius widens the nominal radius so an elongated poster still has
// feature coverage out to its longer edge after the inward crop.
func FetchRadius(radiusM, width, height int) int {
	w, h := float64(width), float64(height)
	ratio := math.Max(w, h) / math.Min(w, h)
	return int(float64(radiusM) * ratio)
}
