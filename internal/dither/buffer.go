package dither

import "fmt"

// Buffer is a tightly packed RGBA raster: Width*Height pixels of four 8-bit
// non-premultiplied channels each, row-major. Its layout matches
// image.NRGBA with Stride == 4*Width.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates a zeroed buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Validate checks that the declared dimensions agree with len(Pix).
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrBufferShapeMismatch)
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrBufferShapeMismatch, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d",
			ErrBufferShapeMismatch, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Offset returns the index of the red channel of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// RGBA returns the four channels of pixel (x, y).
func (b *Buffer) RGBA(x, y int) (r, g, bl, a uint8) {
	i := b.Offset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// SetRGBA stores the four channels of pixel (x, y).
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) {
	i := b.Offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = r, g, bl, a
}
