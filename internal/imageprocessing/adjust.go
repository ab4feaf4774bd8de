package imageprocessing

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Adjustments is the pre-filter applied before dithering. Contrast and
// Lightness are multiplicative factors where 1 leaves the image unchanged;
// Blur is a Gaussian radius in pixels where 0 disables blurring.
type Adjustments struct {
	Contrast  float64 `json:"contrast" yaml:"contrast"`
	Lightness float64 `json:"lightness" yaml:"lightness"`
	Blur      float64 `json:"blur" yaml:"blur"`
}

// DefaultAdjustments returns the identity pre-filter.
func DefaultAdjustments() Adjustments {
	return Adjustments{Contrast: 1, Lightness: 1, Blur: 0}
}

// Limits of the pre-filter controls.
const (
	MaxContrast  = 2.0
	MaxLightness = 2.0
	MaxBlur      = 10.0
)

// Validate rejects values outside [0, max] and non-finite values.
func (a Adjustments) Validate() error {
	for _, f := range []struct {
		name       string
		value, max float64
	}{
		{"contrast", a.Contrast, MaxContrast},
		{"lightness", a.Lightness, MaxLightness},
		{"blur", a.Blur, MaxBlur},
	} {
		if math.IsNaN(f.value) || f.value < 0 || f.value > f.max {
			return fmt.Errorf("%s must be between 0 and %v, got %v", f.name, f.max, f.value)
		}
	}
	return nil
}

// IsIdentity reports whether applying a would leave the image unchanged.
func (a Adjustments) IsIdentity() bool {
	return a.Contrast == 1 && a.Lightness == 1 && a.Blur == 0
}

// Adjust applies contrast, then lightness, then blur and returns a new
// image. Contrast maps each channel c in [0,1] to (c-0.5)*Contrast+0.5 and
// lightness to c*Lightness, clamping after each step. Alpha is preserved.
func Adjust(img image.Image, a Adjustments) *image.NRGBA {
	if a.IsIdentity() {
		return imaging.Clone(img)
	}

	var out *image.NRGBA
	if a.Contrast == 1 && a.Lightness == 1 {
		out = imaging.Clone(img)
	} else {
		lut := toneCurve(a.Contrast, a.Lightness)
		out = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
		})
	}

	if a.Blur > 0 {
		out = imaging.Blur(out, a.Blur)
	}
	return out
}

func toneCurve(contrast, lightness float64) [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		c := float64(i) / 255
		c = clampUnit((c-0.5)*contrast + 0.5)
		c = clampUnit(c * lightness)
		lut[i] = uint8(math.Round(c * 255))
	}
	return lut
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
