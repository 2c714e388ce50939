// Package effects is the post-render processing chain: texture overlay,
// artistic effect, color enhancement, applied in that fixed order. Every
// stage is a deterministic filter; a stage whose asset is missing is skipped
// with a warning and never aborts generation.
package effects

import (
	"image"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/theme"
)

// Options selects the stages for one run.
type Options struct {
	Texture     string // texture name or "none"
	Effect      model.ArtisticEffect
	Enhancement model.ColorEnhancement
	Terrain     theme.Terrain // drives the geographic palette
}

// Chain applies the post-processing stages against a textures directory.
type Chain struct {
	texturesDir string
	logger      zerolog.Logger
}

func NewChain(texturesDir string, logger zerolog.Logger) *Chain {
	return &Chain{texturesDir: texturesDir, logger: logger}
}

// Apply runs the selected stages in order and returns the processed canvas.
// The input image is modified in place and returned for convenience.
func (c *Chain) Apply(img *image.RGBA, opts Options, rec *fault.Recorder) *image.RGBA {
	if opts.Texture != "" && opts.Texture != "none" {
		if err := c.overlayTexture(img, opts.Texture); err != nil {
			rec.Warn(fault.AssetMissing, "texture %q: %v", opts.Texture, err)
			c.logger.Warn().Err(err).Str("texture", opts.Texture).Msg("texture stage skipped")
		}
	}

	switch opts.Effect {
	case model.EffectWatercolor:
		applyWatercolor(img)
	case model.EffectPencilSketch:
		applyPencilSketch(img)
	case model.EffectOilPainting:
		applyOilPainting(img)
	case model.EffectVintage:
		applyVintage(img)
	}

	switch opts.Enhancement {
	case model.EnhancePalette:
		applyPaletteHarmonization(img)
	case model.EnhanceGeographic:
		applyGeographicPalette(img, opts.Terrain)
	case model.EnhanceSpring:
		applySeason(img, seasonSpring)
	case model.EnhanceSummer:
		applySeason(img, seasonSummer)
	case model.EnhanceAutumn:
		applySeason(img, seasonAutumn)
	case model.EnhanceWinter:
		applySeason(img, seasonWinter)
	}
	return img
}
