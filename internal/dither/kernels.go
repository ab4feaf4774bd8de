package dither

import (
	"math"

	ditherlib "github.com/makeworld-the-better-one/dither/v2"
)

// tap is one neighbour of an error-diffusion kernel, in block units.
type tap struct {
	dx, dy int
	weight float64
}

// bayer4 is the classic 4x4 Bayer index matrix. Every level 0-15 occurs once.
var bayer4 = ditherlib.OrderedDitherMatrix{
	Matrix: [][]uint{
		{0, 8, 2, 10},
		{12, 4, 14, 6},
		{3, 11, 1, 9},
		{15, 7, 13, 5},
	},
	Max: 16,
}

var (
	// floydSteinbergTaps: right 7/16, down-left 3/16, down 5/16, down-right 1/16.
	floydSteinbergTaps = kernelTaps(ditherlib.FloydSteinberg)
	// atkinsonTaps: six shares of 1/8; the remaining 2/8 is discarded.
	atkinsonTaps = kernelTaps(ditherlib.Atkinson)
)

// kernelTaps flattens an error-diffusion matrix into neighbour offsets. The
// current pixel sits in row 0 immediately left of the first non-zero weight,
// which is how the matrices in the dither library are laid out.
func kernelTaps(m ditherlib.ErrorDiffusionMatrix) []tap {
	if len(m) == 0 {
		return nil
	}
	cur := -1
	for i, w := range m[0] {
		if w > 0 {
			cur = i - 1
			break
		}
	}
	if cur < 0 {
		panic("dither: error diffusion matrix has no forward weight")
	}

	var taps []tap
	for dy, row := range m {
		for col, w := range row {
			if w == 0 {
				continue
			}
			taps = append(taps, tap{dx: col - cur, dy: dy, weight: float64(w)})
		}
	}
	return taps
}

// ThresholdMatrix returns the 4x4 threshold levels used by the ordered
// ditherer, unscaled.
func ThresholdMatrix() [4][4]uint {
	var out [4][4]uint
	for y := range 4 {
		for x := range 4 {
			out[y][x] = bayer4.Matrix[y][x]
		}
	}
	return out
}

// scaledThresholds maps the Bayer levels onto the pixel range:
// floor(level/16 * 255 * intensity).
func scaledThresholds(intensity float64) [4][4]float64 {
	var out [4][4]float64
	for y := range 4 {
		for x := range 4 {
			level := float64(bayer4.Matrix[y][x]) / float64(bayer4.Max)
			out[y][x] = math.Floor(level * 255 * intensity)
		}
	}
	return out
}
