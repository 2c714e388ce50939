package effects

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/logger"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/theme"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 0x80, 0xff})
		}
	}
	return img
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}

func writeTexture(t *testing.T, dir, name string) {
	t.Helper()
	tex := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range tex.Pix {
		tex.Pix[i] = uint8(i % 251)
	}
	f, err := os.Create(filepath.Join(dir, name+".png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, tex))
	require.NoError(t, f.Close())
}

func TestMissingTextureWarnsAndContinues(t *testing.T) {
	c := NewChain(t.TempDir(), logger.Nop())
	rec := fault.NewRecorder()
	img := testImage()

	out := c.Apply(img, Options{Texture: "missing_texture"}, rec)

	assert.NotNil(t, out)
	assert.True(t, rec.Has(fault.AssetMissing))
}

func TestTextureOverlayChangesPixels(t *testing.T) {
	dir := t.TempDir()
	writeTexture(t, dir, "paper")
	c := NewChain(dir, logger.Nop())
	rec := fault.NewRecorder()

	before := testImage()
	after := c.Apply(clone(before), Options{Texture: "paper"}, rec)

	assert.False(t, rec.Has(fault.AssetMissing))
	assert.NotEqual(t, before.Pix, after.Pix)
}

func TestTextureNoneIsPassThrough(t *testing.T) {
	c := NewChain(t.TempDir(), logger.Nop())
	rec := fault.NewRecorder()

	before := testImage()
	after := c.Apply(clone(before), Options{Texture: "none"}, rec)

	assert.Equal(t, before.Pix, after.Pix)
	assert.Empty(t, rec.Warnings())
}

func TestVintageIsDeterministic(t *testing.T) {
	c := NewChain(t.TempDir(), logger.Nop())
	a := c.Apply(testImage(), Options{Texture: "none", Effect: model.EffectVintage}, fault.NewRecorder())
	b := c.Apply(testImage(), Options{Texture: "none", Effect: model.EffectVintage}, fault.NewRecorder())
	assert.Equal(t, a.Pix, b.Pix)
}

func TestPencilSketchIsGrayscale(t *testing.T) {
	c := NewChain(t.TempDir(), logger.Nop())
	out := c.Apply(testImage(), Options{Texture: "none", Effect: model.EffectPencilSketch}, fault.NewRecorder())
	for i := 0; i < len(out.Pix); i += 4 {
		require.Equal(t, out.Pix[i], out.Pix[i+1])
		require.Equal(t, out.Pix[i], out.Pix[i+2])
	}
}

func TestSeasonalShiftsMoveChannels(t *testing.T) {
	c := NewChain(t.TempDir(), logger.Nop())

	before := testImage()
	winter := c.Apply(clone(before), Options{Texture: "none", Enhancement: model.EnhanceWinter}, fault.NewRecorder())
	autumn := c.Apply(clone(before), Options{Texture: "none", Enhancement: model.EnhanceAutumn}, fault.NewRecorder())

	assert.NotEqual(t, before.Pix, winter.Pix)
	assert.NotEqual(t, winter.Pix, autumn.Pix)
}

func TestGeographicPaletteNeedsTerrain(t *testing.T) {
	c := NewChain(t.TempDir(), logger.Nop())

	before := testImage()
	none := c.Apply(clone(before), Options{Texture: "none", Enhancement: model.EnhanceGeographic, Terrain: theme.TerrainNone}, fault.NewRecorder())
	assert.Equal(t, before.Pix, none.Pix, "no detected terrain leaves the image untouched")

	coastal := c.Apply(clone(before), Options{Texture: "none", Enhancement: model.EnhanceGeographic, Terrain: theme.TerrainCoastal}, fault.NewRecorder())
	assert.NotEqual(t, before.Pix, coastal.Pix)
}
