package imageprocessing

import (
	"image"
	"image/draw"

	"github.com/rmitchellscott/ditherstudio/internal/dither"
)

// ToNRGBA converts any image to non-premultiplied RGBA anchored at (0,0).
// An *image.NRGBA that already satisfies this is returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}

	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	return nrgba
}

// ToBuffer copies an image into a packed dither buffer.
func ToBuffer(img image.Image) *dither.Buffer {
	src := ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	buf := dither.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		copy(buf.Pix[y*w*4:], row)
	}
	return buf
}

// FromBuffer wraps a dither buffer as an image without copying.
func FromBuffer(buf *dither.Buffer) *image.NRGBA {
	return &image.NRGBA{
		Pix:    buf.Pix,
		Stride: buf.Width * 4,
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}
}

// IsBinaryGray reports whether every pixel is opaque black or opaque white,
// which is what monochrome dithering of an opaque image produces.
func IsBinaryGray(img *image.NRGBA) bool {
	b := img.Rect
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			v := row[i]
			if (v != 0 && v != 255) || row[i+1] != v || row[i+2] != v || row[i+3] != 255 {
				return false
			}
		}
	}
	return true
}
