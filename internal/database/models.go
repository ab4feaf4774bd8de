package database

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherstudio/internal/dither"
	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
)

// Preset is a named set of dither and pre-filter settings.
type Preset struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Algorithm   string         `gorm:"size:32;not null" json:"algorithm"`
	ColorMode   string         `gorm:"size:32;not null" json:"color_mode"`
	Intensity   float64        `gorm:"not null" json:"intensity"`
	PatternSize int            `gorm:"not null" json:"pattern_size"`
	Adjustments datatypes.JSON `json:"adjustments"`
	BuiltIn     bool           `gorm:"default:false" json:"built_in"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate sets UUID if not already set
func (p *Preset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Params returns the dither parameters stored in the preset.
func (p *Preset) Params() (dither.Params, error) {
	algorithm, err := dither.ParseAlgorithm(p.Algorithm)
	if err != nil {
		return dither.Params{}, err
	}
	mode, err := dither.ParseColorMode(p.ColorMode)
	if err != nil {
		return dither.Params{}, err
	}
	return dither.Params{
		Algorithm:   algorithm,
		ColorMode:   mode,
		Intensity:   p.Intensity,
		PatternSize: p.PatternSize,
	}, nil
}

// SetParams stores params using canonical names.
func (p *Preset) SetParams(params dither.Params) {
	p.Algorithm = params.Algorithm.String()
	p.ColorMode = params.ColorMode.String()
	p.Intensity = params.Intensity
	p.PatternSize = params.PatternSize
}

// Adjust decodes the pre-filter. An empty column means the identity filter;
// missing keys keep their identity value.
func (p *Preset) Adjust() (imageprocessing.Adjustments, error) {
	adj := imageprocessing.DefaultAdjustments()
	if len(p.Adjustments) == 0 {
		return adj, nil
	}
	if err := json.Unmarshal(p.Adjustments, &adj); err != nil {
		return adj, fmt.Errorf("invalid adjustments JSON: %w", err)
	}
	return adj, nil
}

// SetAdjust stores the pre-filter.
func (p *Preset) SetAdjust(adj imageprocessing.Adjustments) error {
	data, err := json.Marshal(adj)
	if err != nil {
		return err
	}
	p.Adjustments = datatypes.JSON(data)
	return nil
}

// Options returns the full processing options for the preset, with the
// given dimension limit.
func (p *Preset) Options(maxDimension int) (imageprocessing.ProcessingOptions, error) {
	params, err := p.Params()
	if err != nil {
		return imageprocessing.ProcessingOptions{}, err
	}
	adj, err := p.Adjust()
	if err != nil {
		return imageprocessing.ProcessingOptions{}, err
	}
	return imageprocessing.ProcessingOptions{Dither: params, Adjust: adj, MaxDimension: maxDimension}, nil
}

// Normalize trims the name, rewrites algorithm and colour mode to their
// canonical names and validates every setting.
func (p *Preset) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	opts, err := p.Options(0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}
	p.SetParams(opts.Dither)
	return p.SetAdjust(opts.Adjust)
}

// Render is one entry of the render history.
type Render struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PresetID     *uuid.UUID `gorm:"type:uuid;index" json:"preset_id,omitempty"`
	Preset       *Preset    `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Algorithm    string     `gorm:"size:32;not null" json:"algorithm"`
	ColorMode    string     `gorm:"size:32;not null" json:"color_mode"`
	Intensity    float64    `json:"intensity"`
	PatternSize  int        `json:"pattern_size"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	DurationMs   int64      `json:"duration_ms"`
	SourceKind   string     `gorm:"size:16" json:"source_kind"` // upload or url
	SourceFormat string     `gorm:"size:16" json:"source_format"`
	OutputBytes  int        `json:"output_bytes"`
	Stored       bool       `json:"stored"`
	Checksum     string     `gorm:"size:64" json:"checksum,omitempty"` // SHA-256 of the stored PNG
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

// BeforeCreate sets UUID if not already set
func (r *Render) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// GetAllModels returns every model managed by migrations.
func GetAllModels() []interface{} {
	return []interface{}{
		&Preset{},
		&Render{},
	}
}
