package dither

import (
	"fmt"
	"math"
	"strings"
)

// Algorithm selects one of the three block ditherers.
type Algorithm int

const (
	// ErrorDiffusion spreads the full quantization error over four neighbouring
	// blocks with the Floyd-Steinberg weights.
	ErrorDiffusion Algorithm = iota
	// Ordered compares each block against a 4x4 Bayer threshold matrix.
	Ordered
	// ReducedDiffusion spreads six eighths of the error over six neighbouring
	// blocks with the Atkinson layout.
	ReducedDiffusion

	algorithmCount // sentinel for validation
)

var algorithmNames = [algorithmCount]string{
	"error-diffusion", "ordered", "reduced-diffusion",
}

// String returns the canonical name of the algorithm.
func (a Algorithm) String() string {
	if a.Valid() {
		return algorithmNames[a]
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a >= 0 && a < algorithmCount
}

// Algorithms returns every known algorithm in declaration order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, algorithmCount)
	for a := Algorithm(0); a < algorithmCount; a++ {
		out = append(out, a)
	}
	return out
}

// ParseAlgorithm accepts the canonical names plus the classic algorithm names
// ("floyd-steinberg", "bayer", "atkinson"). Matching ignores case, spaces and
// underscores.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch normalizeName(s) {
	case "error-diffusion", "floyd-steinberg", "fs":
		return ErrorDiffusion, nil
	case "ordered", "bayer", "bayer-matrix":
		return Ordered, nil
	case "reduced-diffusion", "atkinson":
		return ReducedDiffusion, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, s)
}

// ColorMode selects whether channels are dithered independently or through a
// shared luma value.
type ColorMode int

const (
	// Color quantizes R, G and B independently.
	Color ColorMode = iota
	// Monochrome quantizes the block luma and writes it to all three channels.
	Monochrome

	colorModeCount
)

var colorModeNames = [colorModeCount]string{"color", "monochrome"}

func (m ColorMode) String() string {
	if m.Valid() {
		return colorModeNames[m]
	}
	return fmt.Sprintf("ColorMode(%d)", int(m))
}

// Valid reports whether m is a known color mode.
func (m ColorMode) Valid() bool {
	return m >= 0 && m < colorModeCount
}

// ColorModes returns every known color mode in declaration order.
func ColorModes() []ColorMode {
	return []ColorMode{Color, Monochrome}
}

// ParseColorMode accepts "color"/"rgb" and "monochrome"/"black-and-white"/"bw".
func ParseColorMode(s string) (ColorMode, error) {
	switch normalizeName(s) {
	case "color", "colour", "rgb":
		return Color, nil
	case "monochrome", "mono", "black-and-white", "blackandwhite", "bw", "grayscale":
		return Monochrome, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColorMode, s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-", "&", "and").Replace(s)
	return s
}

// Params configures a single Dither call.
type Params struct {
	Algorithm Algorithm
	// Intensity scales the propagated error (diffusion) or the threshold
	// matrix (ordered). Zero disables the effect; values above 1 amplify it.
	Intensity float64
	ColorMode ColorMode
	// PatternSize is the side length of the square block treated as one
	// dithering unit. 1 gives classic per-pixel dithering.
	PatternSize int
}

// DefaultParams returns per-pixel colour error diffusion at full intensity.
func DefaultParams() Params {
	return Params{
		Algorithm:   ErrorDiffusion,
		Intensity:   1,
		ColorMode:   Color,
		PatternSize: 1,
	}
}

// Validate reports the first configuration problem in p, if any.
func (p Params) Validate() error {
	if !p.Algorithm.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAlgorithm, int(p.Algorithm))
	}
	if !p.ColorMode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidColorMode, int(p.ColorMode))
	}
	if p.PatternSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPatternSize, p.PatternSize)
	}
	if p.Intensity < 0 || math.IsNaN(p.Intensity) || math.IsInf(p.Intensity, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidIntensity, p.Intensity)
	}
	return nil
}
