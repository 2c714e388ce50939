package effects

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
)

// Texture blend weights: the map keeps the upper hand, the paper grain
// shows through underneath.
const (
	textureBaseWeight = 0.7
	textureWeight     = 0.3
	textureBrightness = 1.1
	textureContrast   = 1.1
)

var textureExtensions = []string{".png", ".jpg", ".jpeg"}

// overlayTexture blends the named texture over the canvas, then nudges
// brightness and contrast back up to offset the darkening the blend causes.
func (c *Chain) overlayTexture(img *image.RGBA, name string) error {
	tex, err := c.loadTexture(name)
	if err != nil {
		return err
	}

	b := img.Bounds()
	tb := tex.Bounds()
	sx := float64(tb.Dx()) / float64(b.Dx())
	sy := float64(tb.Dy()) / float64(b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		ty := tb.Min.Y + int(float64(y)*sy)
		for x := b.Min.X; x < b.Max.X; x++ {
			tx := tb.Min.X + int(float64(x)*sx)
			tr, tg, tbv, _ := tex.At(tx, ty).RGBA()

			i := img.PixOffset(x, y)
			img.Pix[i+0] = texBlend(img.Pix[i+0], uint8(tr>>8))
			img.Pix[i+1] = texBlend(img.Pix[i+1], uint8(tg>>8))
			img.Pix[i+2] = texBlend(img.Pix[i+2], uint8(tbv>>8))
		}
	}
	return nil
}

func texBlend(base, tex uint8) uint8 {
	v := float64(base)*textureBaseWeight + float64(tex)*textureWeight
	v *= textureBrightness
	v = (v-128)*textureContrast + 128
	return clamp8(v)
}

func (c *Chain) loadTexture(name string) (image.Image, error) {
	for _, ext := range textureExtensions {
		path := filepath.Join(c.texturesDir, name+ext)
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("no texture file for %q in %s", name, c.texturesDir)
}

func clamp8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
