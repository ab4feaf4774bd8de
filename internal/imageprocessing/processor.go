package imageprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/rmitchellscott/ditherstudio/internal/dither"
)

// ErrImageTooLarge is returned by Decode when the declared image size exceeds
// the pixel limit.
var ErrImageTooLarge = errors.New("image exceeds pixel limit")

// ProcessingOptions allows customization of the image processing pipeline
type ProcessingOptions struct {
	Dither dither.Params
	Adjust Adjustments
	// MaxDimension caps the longest side before dithering; 0 disables it.
	MaxDimension int
}

// DefaultProcessingOptions returns the settings of a freshly opened studio:
// colour error diffusion at full strength with an identity pre-filter.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		Dither:       dither.DefaultParams(),
		Adjust:       DefaultAdjustments(),
		MaxDimension: 4096,
	}
}

// Validate checks both the dither parameters and the pre-filter.
func (o ProcessingOptions) Validate() error {
	if err := o.Dither.Validate(); err != nil {
		return err
	}
	if err := o.Adjust.Validate(); err != nil {
		return fmt.Errorf("invalid adjustments: %w", err)
	}
	return nil
}

// Result is the output of Process.
type Result struct {
	Image    *image.NRGBA
	Duration time.Duration
}

// Process applies the full pipeline: size limit, pre-filter, dithering. The
// source image is not modified.
func Process(img image.Image, options ProcessingOptions) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	// Step 1: Scale down oversized sources
	resized := LimitSize(img, options.MaxDimension)

	// Step 2: Contrast, lightness and blur
	adjusted := Adjust(resized, options.Adjust)

	// Step 3: Dither
	dithered, err := DitherImage(adjusted, options.Dither)
	if err != nil {
		return nil, err
	}

	return &Result{Image: dithered, Duration: time.Since(start)}, nil
}

// Decode reads an image in any registered format. When maxPixels is positive
// the header is inspected first and images declaring more pixels are
// rejected before their data is decoded. The bytes consumed by the header
// check are replayed into the full decode, however long the header is.
func Decode(r io.Reader, maxPixels int) (image.Image, string, error) {
	if maxPixels > 0 {
		var header bytes.Buffer
		cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode image header: %w", err)
		}
		if cfg.Width*cfg.Height > maxPixels {
			return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
		}
		r = io.MultiReader(&header, r)
	}

	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}
