package dither

import "math"

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Luma returns the rounded BT.601 luma of an RGB triple. Inputs may lie
// outside [0, 255] while error is being accumulated.
func Luma(r, g, b float64) float64 {
	return math.Round(lumaR*r + lumaG*g + lumaB*b)
}

// ClampByte clamps v to [0, 255] and rounds half to even, the conversion an
// 8-bit clamped pixel store applies. NaN becomes 0.
func ClampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.RoundToEven(v))
}

// grid is the working plane of a dithering pass. It holds one RGB triple per
// block origin; only origins are ever read, so pixels inside a block never
// need a working value of their own. Every update is stored back as a byte, so
// working values always lie in [0, 255].
type grid struct {
	cols, rows int
	size       int
	val        []float64
}

func newGrid(buf *Buffer, size int) *grid {
	g := &grid{
		cols: ceilDiv(buf.Width, size),
		rows: ceilDiv(buf.Height, size),
		size: size,
	}
	g.val = make([]float64, g.cols*g.rows*3)
	for by := 0; by < g.rows; by++ {
		for bx := 0; bx < g.cols; bx++ {
			src := buf.Offset(bx*size, by*size)
			dst := g.index(bx, by)
			g.val[dst] = float64(buf.Pix[src])
			g.val[dst+1] = float64(buf.Pix[src+1])
			g.val[dst+2] = float64(buf.Pix[src+2])
		}
	}
	return g
}

func (g *grid) index(bx, by int) int {
	return (by*g.cols + bx) * 3
}

func (g *grid) inside(bx, by int) bool {
	return bx >= 0 && bx < g.cols && by >= 0 && by < g.rows
}

// cell returns the RGB working values of block (bx, by).
func (g *grid) cell(bx, by int) []float64 {
	i := g.index(bx, by)
	return g.val[i : i+3 : i+3]
}

// add accumulates delta into each channel of block (bx, by), dropping it when
// the block lies outside the buffer.
func (g *grid) add(bx, by int, delta [3]float64) {
	if !g.inside(bx, by) {
		return
	}
	i := g.index(bx, by)
	for c := range 3 {
		g.val[i+c] = float64(ClampByte(g.val[i+c] + delta[c]))
	}
}

// addGray adds delta to the red working value of block (bx, by) and stores
// the result in all three channels, so the block turns gray.
func (g *grid) addGray(bx, by int, delta float64) {
	if !g.inside(bx, by) {
		return
	}
	i := g.index(bx, by)
	v := float64(ClampByte(g.val[i] + delta))
	g.val[i], g.val[i+1], g.val[i+2] = v, v, v
}

// fill writes rgb to every in-bounds pixel of block (bx, by). Alpha is left
// untouched.
func fill(buf *Buffer, size, bx, by int, rgb [3]uint8) {
	x0, y0 := bx*size, by*size
	x1, y1 := min(x0+size, buf.Width), min(y0+size, buf.Height)
	for y := y0; y < y1; y++ {
		i := buf.Offset(x0, y)
		for x := x0; x < x1; x++ {
			buf.Pix[i] = rgb[0]
			buf.Pix[i+1] = rgb[1]
			buf.Pix[i+2] = rgb[2]
			i += 4
		}
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
