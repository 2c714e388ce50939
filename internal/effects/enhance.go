package effects

import (
	"image"
	"math"

	"github.com/cartapress/cartapress/internal/theme"
)

// rgbToHSV and hsvToRGB work on [0,1] components with hue in [0,1).
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v = maxC
	d := maxC - minC
	if maxC > 0 {
		s = d / maxC
	}
	if d == 0 {
		return 0, s, v
	}
	switch maxC {
	case r:
		h = math.Mod((g-b)/d, 6) / 6
	case g:
		h = ((b-r)/d + 2) / 6
	default:
		h = ((r-g)/d + 4) / 6
	}
	if h < 0 {
		h += 1
	}
	return h, s, v
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func scaleSaturation(img *image.RGBA, factor float64) {
	eachPixelHSV(img, func(h, s, v float64) (float64, float64, float64) {
		return h, math.Min(1, s*factor), v
	})
}

func eachPixelHSV(img *image.RGBA, fn func(h, s, v float64) (float64, float64, float64)) {
	for i := 0; i < len(img.Pix); i += 4 {
		h, s, v := rgbToHSV(float64(img.Pix[i])/255, float64(img.Pix[i+1])/255, float64(img.Pix[i+2])/255)
		h, s, v = fn(h, s, v)
		r, g, b := hsvToRGB(h, s, math.Max(0, math.Min(1, v)))
		img.Pix[i+0] = clamp8(r * 255)
		img.Pix[i+1] = clamp8(g * 255)
		img.Pix[i+2] = clamp8(b * 255)
	}
}

// applyPaletteHarmonization pulls every hue toward the nearest harmonic
// anchor of the image's dominant hue (the hue itself, its complement, and
// the two triadic positions), then lifts saturation slightly.
func applyPaletteHarmonization(img *image.RGBA) {
	dom := dominantHue(img)
	anchors := []float64{dom, math.Mod(dom+0.5, 1), math.Mod(dom+1.0/3, 1), math.Mod(dom+2.0/3, 1)}
	const pull = 0.3

	eachPixelHSV(img, func(h, s, v float64) (float64, float64, float64) {
		if s < 0.05 {
			return h, s, v
		}
		nearest, best := h, math.Inf(1)
		for _, a := range anchors {
			if d := hueDistance(h, a); d < best {
				best, nearest = d, a
			}
		}
		return h + hueDelta(h, nearest)*pull, math.Min(1, s*1.1), v
	})
}

// dominantHue is the circular mean hue of the saturated pixels. Sampling
// every 16th pixel keeps it cheap without changing the answer meaningfully.
func dominantHue(img *image.RGBA) float64 {
	var sx, sy float64
	for i := 0; i+3 < len(img.Pix); i += 4 * 16 {
		h, s, _ := rgbToHSV(float64(img.Pix[i])/255, float64(img.Pix[i+1])/255, float64(img.Pix[i+2])/255)
		if s < 0.05 {
			continue
		}
		sx += math.Cos(2 * math.Pi * h)
		sy += math.Sin(2 * math.Pi * h)
	}
	if sx == 0 && sy == 0 {
		return 0
	}
	h := math.Atan2(sy, sx) / (2 * math.Pi)
	if h < 0 {
		h += 1
	}
	return h
}

func hueDelta(from, to float64) float64 {
	d := to - from
	if d > 0.5 {
		d -= 1
	}
	if d < -0.5 {
		d += 1
	}
	return d
}

func hueDistance(a, b float64) float64 {
	return math.Abs(hueDelta(a, b))
}

// terrainTints are subtle washes keyed by the detected geographic context.
var terrainTints = map[theme.Terrain][3]float64{
	theme.TerrainMountain: {120, 130, 145},
	theme.TerrainCoastal:  {110, 150, 170},
	theme.TerrainDesert:   {200, 170, 120},
	theme.TerrainForest:   {110, 160, 120},
	theme.TerrainUrban:    {140, 140, 140},
}

const tintStrength = 0.12

func applyGeographicPalette(img *image.RGBA, terrain theme.Terrain) {
	tint, ok := terrainTints[terrain]
	if !ok {
		return
	}
	for i := 0; i < len(img.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			v := float64(img.Pix[i+ch])
			img.Pix[i+ch] = clamp8(v*(1-tintStrength) + tint[ch]*tintStrength)
		}
	}
}

// seasonShift adjusts channels additively, then brightness and saturation.
type seasonShift struct {
	dr, dg, db float64
	brightness float64 // additive, 0..255 scale
	saturation float64 // percent, signed
}

var (
	seasonSpring = seasonShift{dg: 20, brightness: 10, saturation: 15}
	seasonSummer = seasonShift{brightness: 5, saturation: 10}
	seasonAutumn = seasonShift{dr: 30, dg: 10, brightness: -10, saturation: 20}
	seasonWinter = seasonShift{db: 15, brightness: -20, saturation: -30}
)

func applySeason(img *image.RGBA, shift seasonShift) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = clamp8(float64(img.Pix[i+0]) + shift.dr)
		img.Pix[i+1] = clamp8(float64(img.Pix[i+1]) + shift.dg)
		img.Pix[i+2] = clamp8(float64(img.Pix[i+2]) + shift.db)
	}
	eachPixelHSV(img, func(h, s, v float64) (float64, float64, float64) {
		return h, math.Min(1, math.Max(0, s*(1+shift.saturation/100))), v + shift.brightness/255
	})
}
