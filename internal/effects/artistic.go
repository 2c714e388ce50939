package effects

import (
	"image"
	"math"
)

// applyWatercolor softens edges with a small blur and lifts saturation, the
// wet-paper look.
func applyWatercolor(img *image.RGBA) {
	boxBlur(img, 2)
	scaleSaturation(img, 1.15)
}

// applyPencilSketch converts to an inverted edge map: strong gradients go
// dark, flat regions stay paper-white.
func applyPencilSketch(img *image.RGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			gray[y*w+x] = 0.299*float64(img.Pix[i]) + 0.587*float64(img.Pix[i+1]) + 0.114*float64(img.Pix[i+2])
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy float64
			if x > 0 && x < w-1 {
				gx = gray[y*w+x+1] - gray[y*w+x-1]
			}
			if y > 0 && y < h-1 {
				gy = gray[(y+1)*w+x] - gray[(y-1)*w+x]
			}
			edge := clamp8(255 - math.Hypot(gx, gy)*2)
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			img.Pix[i+0] = edge
			img.Pix[i+1] = edge
			img.Pix[i+2] = edge
		}
	}
}

// applyOilPainting posterizes the channels and smooths the result into
// broad flat strokes.
func applyOilPainting(img *image.RGBA) {
	const levels = 8
	step := 255.0 / (levels - 1)
	for i := 0; i < len(img.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			v := float64(img.Pix[i+ch])
			img.Pix[i+ch] = clamp8(math.Round(v/step) * step)
		}
	}
	boxBlur(img, 1)
}

// Sepia weights for the vintage effect.
var sepiaMatrix = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

const (
	sepiaStrength  = 0.2
	vignetteFloor  = 0.7
	vignetteRange  = 0.3
	noiseAmplitude = 0.02 * 255
)

// applyVintage layers a light sepia cast, a radial vignette, and film grain.
// The grain uses a fixed-seed generator so the filter stays deterministic.
func applyVintage(img *image.RGBA) {
	b := img.Bounds()
	cx := float64(b.Dx()) / 2
	cy := float64(b.Dy()) / 2
	maxDist := math.Hypot(cx, cy)

	rng := newGrain(0x5eed)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			r := float64(img.Pix[i+0])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])

			sr := sepiaMatrix[0][0]*r + sepiaMatrix[0][1]*g + sepiaMatrix[0][2]*bl
			sg := sepiaMatrix[1][0]*r + sepiaMatrix[1][1]*g + sepiaMatrix[1][2]*bl
			sb := sepiaMatrix[2][0]*r + sepiaMatrix[2][1]*g + sepiaMatrix[2][2]*bl
			r = r*(1-sepiaStrength) + sr*sepiaStrength
			g = g*(1-sepiaStrength) + sg*sepiaStrength
			bl = bl*(1-sepiaStrength) + sb*sepiaStrength

			dist := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			vig := vignetteFloor + vignetteRange*(1-dist*dist)
			noise := (rng.next() - 0.5) * 2 * noiseAmplitude

			img.Pix[i+0] = clamp8(r*vig + noise)
			img.Pix[i+1] = clamp8(g*vig + noise)
			img.Pix[i+2] = clamp8(bl*vig + noise)
		}
	}
}

// grain is a tiny fixed-seed LCG. math/rand would also do, but pinning the
// recurrence here keeps pixel output stable across toolchain versions.
type grain struct{ state uint64 }

func newGrain(seed uint64) *grain { return &grain{state: seed} }

func (g *grain) next() float64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return float64(g.state>>11) / float64(1<<53)
}

// boxBlur applies a separable mean filter of the given radius.
func boxBlur(img *image.RGBA, radius int) {
	if radius <= 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := make([]uint8, len(img.Pix))
	copy(tmp, img.Pix)

	// Horizontal pass into tmp, vertical pass back into img.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sr, sg, sb, n int
			for dx := -radius; dx <= radius; dx++ {
				xx := x + dx
				if xx < 0 || xx >= w {
					continue
				}
				i := img.PixOffset(b.Min.X+xx, b.Min.Y+y)
				sr += int(img.Pix[i])
				sg += int(img.Pix[i+1])
				sb += int(img.Pix[i+2])
				n++
			}
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			tmp[i+0] = uint8(sr / n)
			tmp[i+1] = uint8(sg / n)
			tmp[i+2] = uint8(sb / n)
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sr, sg, sb, n int
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				i := img.PixOffset(b.Min.X+x, b.Min.Y+yy)
				sr += int(tmp[i])
				sg += int(tmp[i+1])
				sb += int(tmp[i+2])
				n++
			}
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			img.Pix[i+0] = uint8(sr / n)
			img.Pix[i+1] = uint8(sg / n)
			img.Pix[i+2] = uint8(sb / n)
		}
	}
}
