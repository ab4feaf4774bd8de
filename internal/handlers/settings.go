package handlers

import (
	"github.com/rmitchellscott/ditherstudio/internal/dither"
	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
)

// Settings are the optional dither and pre-filter fields shared by
// POST /api/dither and the preset routes. Nil fields keep the base value.
// Intensity and pattern size have no upper bound; the option ranges only
// describe the UI sliders.
type Settings struct {
	Algorithm   *string  `form:"algorithm" json:"algorithm"`
	ColorMode   *string  `form:"color_mode" json:"color_mode"`
	Intensity   *float64 `form:"intensity" json:"intensity" binding:"omitempty,gte=0"`
	PatternSize *int     `form:"pattern_size" json:"pattern_size" binding:"omitempty,gte=1"`
	Contrast    *float64 `form:"contrast" json:"contrast" binding:"omitempty,gte=0,lte=2"`
	Lightness   *float64 `form:"lightness" json:"lightness" binding:"omitempty,gte=0,lte=2"`
	Blur        *float64 `form:"blur" json:"blur" binding:"omitempty,gte=0,lte=10"`
}

// Apply overrides opts with every field that is set.
func (s Settings) Apply(opts *imageprocessing.ProcessingOptions) error {
	if s.Algorithm != nil {
		algorithm, err := dither.ParseAlgorithm(*s.Algorithm)
		if err != nil {
			return err
		}
		opts.Dither.Algorithm = algorithm
	}
	if s.ColorMode != nil {
		mode, err := dither.ParseColorMode(*s.ColorMode)
		if err != nil {
			return err
		}
		opts.Dither.ColorMode = mode
	}
	if s.Intensity != nil {
		opts.Dither.Intensity = *s.Intensity
	}
	if s.PatternSize != nil {
		opts.Dither.PatternSize = *s.PatternSize
	}
	if s.Contrast != nil {
		opts.Adjust.Contrast = *s.Contrast
	}
	if s.Lightness != nil {
		opts.Adjust.Lightness = *s.Lightness
	}
	if s.Blur != nil {
		opts.Adjust.Blur = *s.Blur
	}
	return nil
}
