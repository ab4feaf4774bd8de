// Package dither turns an RGBA raster into a binary (0/255 per channel)
// approximation using error diffusion, ordered thresholding or reduced
// error diffusion, generalised to square blocks of pixels.
//
// All three algorithms share one block scanner: block origins are visited in
// row-major order, each block is quantized from the working value of its
// origin pixel, the result is written to every pixel of the block and, for the
// diffusion algorithms, the scaled quantization error is added to the working
// values of neighbouring blocks. Each such update is clamped to [0, 255] and
// rounded before anything reads it again. In Monochrome mode a neighbour takes
// its red value plus the delta in all three channels.
package dither

import "fmt"

// midThreshold is the fixed quantization threshold of the diffusion ditherers.
const midThreshold = 128

// strategy is the algorithm-specific part of a pass: the threshold for a block
// at pixel origin (x, y) and the neighbours that receive its error.
type strategy struct {
	threshold func(x, y int) float64
	taps      []tap
}

func newStrategy(p Params) (strategy, error) {
	switch p.Algorithm {
	case ErrorDiffusion:
		return strategy{threshold: fixedThreshold, taps: floydSteinbergTaps}, nil
	case Ordered:
		scaled := scaledThresholds(p.Intensity)
		return strategy{
			// Indexed by the absolute pixel coordinate of the block origin,
			// not by block index.
			threshold: func(x, y int) float64 { return scaled[y%4][x%4] },
		}, nil
	case ReducedDiffusion:
		return strategy{threshold: fixedThreshold, taps: atkinsonTaps}, nil
	}
	return strategy{}, fmt.Errorf("%w: %d", ErrInvalidAlgorithm, int(p.Algorithm))
}

func fixedThreshold(int, int) float64 { return midThreshold }

func quantize(v, threshold float64) float64 {
	if v > threshold {
		return 255
	}
	return 0
}

// Dither applies the configured algorithm to buf in place and returns buf.
// Parameters and buffer shape are validated first; on error buf is not
// modified. The alpha channel is never touched.
func Dither(buf *Buffer, p Params) (*Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	s, err := newStrategy(p)
	if err != nil {
		return nil, err
	}
	if buf.Width == 0 || buf.Height == 0 {
		return buf, nil
	}

	scan(buf, p, s)
	return buf, nil
}

func scan(buf *Buffer, p Params, s strategy) {
	g := newGrid(buf, p.PatternSize)

	for by := 0; by < g.rows; by++ {
		for bx := 0; bx < g.cols; bx++ {
			t := s.threshold(bx*g.size, by*g.size)
			old := g.cell(bx, by)

			if p.ColorMode == Monochrome {
				gray := Luma(old[0], old[1], old[2])
				q := quantize(gray, t)
				v := ClampByte(q)
				fill(buf, g.size, bx, by, [3]uint8{v, v, v})

				// Neighbours are rewritten even when the error is zero.
				e := (gray - q) * p.Intensity
				for _, tp := range s.taps {
					g.addGray(bx+tp.dx, by+tp.dy, e*tp.weight)
				}
				continue
			}

			var out [3]uint8
			var errs [3]float64
			for c := range 3 {
				q := quantize(old[c], t)
				out[c] = ClampByte(q)
				errs[c] = (old[c] - q) * p.Intensity
			}
			fill(buf, g.size, bx, by, out)

			if errs == [3]float64{} {
				continue
			}
			for _, tp := range s.taps {
				g.add(bx+tp.dx, by+tp.dy, [3]float64{
					errs[0] * tp.weight,
					errs[1] * tp.weight,
					errs[2] * tp.weight,
				})
			}
		}
	}
}
