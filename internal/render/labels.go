package render

import (
	"fmt"
	"image"
	"math"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/theme"
)

// letterSpacingEm is the extra tracking between title glyphs, as a fraction
// of the font size.
const letterSpacingEm = 0.22

// attributionText credits the feature data source under the title block.
const attributionText = "Map data © OpenStreetMap contributors"

// typesetter wraps a loaded face; when the requested font file cannot be
// used it falls back to the packaged bitmap face and records AssetMissing.
type typesetter struct {
	source *opentype.Font
	dpi    float64
}

func newTypesetter(fontPath string, dpi float64, rec *fault.Recorder) *typesetter {
	ts := &typesetter{dpi: dpi}
	if fontPath == "" {
		return ts
	}
	raw, err := os.ReadFile(fontPath)
	if err != nil {
		rec.Warn(fault.AssetMissing, "font %s: %v", fontPath, err)
		return ts
	}
	f, err := opentype.Parse(raw)
	if err != nil {
		rec.Warn(fault.AssetMissing, "font %s: %v", fontPath, err)
		return ts
	}
	ts.source = f
	return ts
}

// face returns a face rendering at roughly pixelSize pixels tall. The bitmap
// fallback has a fixed size; callers accept that degradation.
func (ts *typesetter) face(pixelSize float64) font.Face {
	if ts.source == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(ts.source, &opentype.FaceOptions{
		Size:    pixelSize * 72 / ts.dpi,
		DPI:     ts.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return f
}

// spacedWidth measures s drawn with tracking applied between glyphs.
func spacedWidth(face font.Face, s string, tracking fixed.Int26_6) fixed.Int26_6 {
	var w fixed.Int26_6
	runes := []rune(s)
	for i, r := range runes {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			adv, _ = face.GlyphAdvance('?')
		}
		w += adv
		if i < len(runes)-1 {
			w += tracking
		}
	}
	return w
}

// drawSpaced draws s centered horizontally at baseline y.
func drawSpaced(dst *image.RGBA, face font.Face, s string, y int, tracking fixed.Int26_6, src image.Image) {
	total := spacedWidth(face, s, tracking)
	x := fixed.I(dst.Bounds().Dx()/2) - total/2
	d := font.Drawer{Dst: dst, Src: src, Face: face, Dot: fixed.Point26_6{X: x, Y: fixed.I(y)}}
	for _, r := range s {
		d.DrawString(string(r))
		d.Dot.X += tracking
	}
}

// formatCoordinate renders "40.0000° N / 89.0000° W" from signed degrees.
func formatCoordinate(lat, lon float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
	}
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f° %s / %.4f° %s", math.Abs(lat), ns, math.Abs(lon), ew)
}

// drawLabels places the title block in the bottom band: city, divider,
// country, the coordinate caption, and the data attribution, measured up
// from the bottom edge.
func drawLabels(dst *image.RGBA, sheet *theme.Stylesheet, p Params, rec *fault.Recorder) {
	h := dst.Bounds().Dy()
	w := dst.Bounds().Dx()
	ts := newTypesetter(p.FontPath, p.DPI, rec)
	src := image.NewUniform(sheet.Text)

	citySize := float64(h) * 0.040
	city := strings.ToUpper(p.City)
	if n := len([]rune(city)); n > 10 {
		citySize *= 10 / float64(n)
	}
	cityFace := ts.face(citySize)
	tracking := fixed.Int26_6(citySize * letterSpacingEm * 64)
	drawSpaced(dst, cityFace, city, int(float64(h)*0.86), tracking, src)

	drawHLine(dst, int(float64(w)*0.4), int(float64(w)*0.6), int(float64(h)*0.875), max(1, h/800), sheet.Text)

	if p.Country != "" {
		subSize := float64(h) * 0.016
		subFace := ts.face(subSize)
		subTracking := fixed.Int26_6(subSize * letterSpacingEm * 64)
		drawSpaced(dst, subFace, strings.ToUpper(p.Country), int(float64(h)*0.90), subTracking, src)
	}

	coordFace := ts.face(float64(h) * 0.012)
	drawSpaced(dst, coordFace, formatCoordinate(p.Center.Lat, p.Center.Lon), int(float64(h)*0.93), 0, src)

	attrFace := ts.face(float64(h) * 0.009)
	drawSpaced(dst, attrFace, attributionText, int(float64(h)*0.965), 0, src)
}
