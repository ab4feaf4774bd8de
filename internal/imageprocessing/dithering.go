package imageprocessing

import (
	"fmt"
	"image"

	"github.com/rmitchellscott/ditherstudio/internal/dither"
)

// DitherImage dithers a copy of img with the given parameters. The source
// image is never modified.
func DitherImage(img image.Image, params dither.Params) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	buf, err := dither.Dither(ToBuffer(img), params)
	if err != nil {
		return nil, fmt.Errorf("failed to dither image: %w", err)
	}
	return FromBuffer(buf), nil
}
