package dither

import (
	"errors"
	"math"
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"error-diffusion", ErrorDiffusion, false},
		{"Floyd-Steinberg", ErrorDiffusion, false},
		{"floyd_steinberg", ErrorDiffusion, false},
		{"ordered", Ordered, false},
		{"Bayer Matrix", Ordered, false},
		{"bayer", Ordered, false},
		{"reduced-diffusion", ReducedDiffusion, false},
		{"  Atkinson ", ReducedDiffusion, false},
		{"", 0, true},
		{"stucki", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAlgorithm) {
					t.Fatalf("ParseAlgorithm(%q) error = %v, want ErrInvalidAlgorithm", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAlgorithm(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorMode
		wantErr bool
	}{
		{"color", Color, false},
		{"RGB", Color, false},
		{"monochrome", Monochrome, false},
		{"blackAndWhite", Monochrome, false},
		{"Black & White", Monochrome, false},
		{"bw", Monochrome, false},
		{"sepia", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColorMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColorMode) {
					t.Fatalf("ParseColorMode(%q) error = %v, want ErrInvalidColorMode", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColorMode(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColorMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAlgorithmString(t *testing.T) {
	for _, a := range Algorithms() {
		back, err := ParseAlgorithm(a.String())
		if err != nil || back != a {
			t.Errorf("ParseAlgorithm(%q) = %v, %v; want %v", a.String(), back, err, a)
		}
	}
	if got := Algorithm(7).String(); got != "Algorithm(7)" {
		t.Errorf("Algorithm(7).String() = %q", got)
	}
	if got := ColorMode(-1).String(); got != "ColorMode(-1)" {
		t.Errorf("ColorMode(-1).String() = %q", got)
	}
}

func TestParamsValidate(t *testing.T) {
	base := DefaultParams()
	tests := []struct {
		name   string
		modify func(*Params)
		want   error
	}{
		{"defaults", func(*Params) {}, nil},
		{"large intensity", func(p *Params) { p.Intensity = 5 }, nil},
		{"large pattern", func(p *Params) { p.PatternSize = 500 }, nil},
		{"unknown algorithm", func(p *Params) { p.Algorithm = Algorithm(3) }, ErrInvalidAlgorithm},
		{"negative algorithm", func(p *Params) { p.Algorithm = Algorithm(-1) }, ErrInvalidAlgorithm},
		{"unknown color mode", func(p *Params) { p.ColorMode = ColorMode(9) }, ErrInvalidColorMode},
		{"zero pattern", func(p *Params) { p.PatternSize = 0 }, ErrInvalidPatternSize},
		{"negative pattern", func(p *Params) { p.PatternSize = -4 }, ErrInvalidPatternSize},
		{"negative intensity", func(p *Params) { p.Intensity = -0.1 }, ErrInvalidIntensity},
		{"NaN intensity", func(p *Params) { p.Intensity = math.NaN() }, ErrInvalidIntensity},
		{"Inf intensity", func(p *Params) { p.Intensity = math.Inf(1) }, ErrInvalidIntensity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.modify(&p)
			err := p.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if !IsConfigError(err) {
				t.Errorf("IsConfigError(%v) = false", err)
			}
		})
	}
}
