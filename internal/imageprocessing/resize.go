package imageprocessing

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// LimitSize scales img down so that neither side exceeds maxDimension while
// preserving the aspect ratio. Images that already fit, and a maxDimension of
// zero or less, are returned unchanged.
func LimitSize(img image.Image, maxDimension int) image.Image {
	if img == nil || maxDimension <= 0 {
		return img
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return img
	}

	newWidth, newHeight := GetScaledDimensions(bounds.Dx(), bounds.Dy(), maxDimension, maxDimension)

	// Resampling with alpha needs a non-premultiplied destination so that
	// transparent pixels keep their colour.
	resized := image.NewNRGBA(image.Rect(0, 0, newWidth, newHeight))

	// BiLinear interpolation is a good quality/speed balance for downscaling
	xdraw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, xdraw.Src, nil)

	return resized
}

// GetScaledDimensions calculates the scaled dimensions that fit within the target while preserving aspect ratio.
// Neither result is smaller than one pixel.
func GetScaledDimensions(srcWidth, srcHeight, targetWidth, targetHeight int) (int, int) {
	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	newWidth := max(int(float64(srcWidth)*scale), 1)
	newHeight := max(int(float64(srcHeight)*scale), 1)

	return newWidth, newHeight
}
