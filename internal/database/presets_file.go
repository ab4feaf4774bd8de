package database

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

// presetFile is the PRESETS_FILE document:
//
//	presets:
//	  - name: newspaper
//	    algorithm: ordered
//	    color_mode: monochrome
//	    intensity: 0.9
//	    pattern_size: 2
//	    adjustments:
//	      contrast: 1.3
type presetFile struct {
	Presets []presetEntry `yaml:"presets"`
}

type presetEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Algorithm   string   `yaml:"algorithm"`
	ColorMode   string   `yaml:"color_mode"`
	Intensity   *float64 `yaml:"intensity"`
	PatternSize *int     `yaml:"pattern_size"`
	Adjustments *struct {
		Contrast  *float64 `yaml:"contrast"`
		Lightness *float64 `yaml:"lightness"`
		Blur      *float64 `yaml:"blur"`
	} `yaml:"adjustments"`
}

// ParsePresets decodes a presets document. Omitted fields take the values of
// a freshly reset studio.
func ParsePresets(data []byte) ([]Preset, error) {
	var doc presetFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	presets := make([]Preset, 0, len(doc.Presets))
	for i, entry := range doc.Presets {
		defaults := imageprocessing.DefaultProcessingOptions()
		p := Preset{
			Name:        entry.Name,
			Description: entry.Description,
			Algorithm:   entry.Algorithm,
			ColorMode:   entry.ColorMode,
			Intensity:   defaults.Dither.Intensity,
			PatternSize: defaults.Dither.PatternSize,
		}
		if p.Algorithm == "" {
			p.Algorithm = defaults.Dither.Algorithm.String()
		}
		if p.ColorMode == "" {
			p.ColorMode = defaults.Dither.ColorMode.String()
		}
		if entry.Intensity != nil {
			p.Intensity = *entry.Intensity
		}
		if entry.PatternSize != nil {
			p.PatternSize = *entry.PatternSize
		}

		adj := defaults.Adjust
		if a := entry.Adjustments; a != nil {
			if a.Contrast != nil {
				adj.Contrast = *a.Contrast
			}
			if a.Lightness != nil {
				adj.Lightness = *a.Lightness
			}
			if a.Blur != nil {
				adj.Blur = *a.Blur
			}
		}
		if err := p.SetAdjust(adj); err != nil {
			return nil, err
		}

		if err := p.Normalize(); err != nil {
			return nil, fmt.Errorf("preset %d (%q): %w", i+1, entry.Name, err)
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// SyncPresetsFile upserts every preset in path. Entries that collide with a
// built-in preset are skipped with a warning.
func (s *PresetService) SyncPresetsFile(path string) (created, updated int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read presets file: %w", err)
	}
	presets, err := ParsePresets(data)
	if err != nil {
		return 0, 0, err
	}

	for i := range presets {
		isNew, err := s.Upsert(&presets[i])
		if errors.Is(err, ErrBuiltInPreset) {
			logging.WarnWithComponent(logging.ComponentPresetsFile, "Skipping preset that shadows a built-in preset", "name", presets[i].Name)
			continue
		}
		if err != nil {
			return created, updated, err
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}

	logging.InfoWithComponent(logging.ComponentPresetsFile, "Presets file applied",
		"path", path, "created", created, "updated", updated)
	return created, updated, nil
}
