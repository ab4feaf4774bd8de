package database

import (
	"errors"
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherstudio/internal/dither"
	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

// BuiltInPresets returns the presets shipped with every installation.
func BuiltInPresets() []Preset {
	type builtIn struct {
		name, description string
		params            dither.Params
		adjust            imageprocessing.Adjustments
	}
	defs := []builtIn{
		{
			name:        "classic-floyd-steinberg",
			description: "Full-strength colour error diffusion, one pixel per block",
			params:      dither.DefaultParams(),
			adjust:      imageprocessing.DefaultAdjustments(),
		},
		{
			name:        "bayer-poster",
			description: "Colour ordered dither in 2px blocks with a contrast boost",
			params:      dither.Params{Algorithm: dither.Ordered, ColorMode: dither.Color, Intensity: 1, PatternSize: 2},
			adjust:      imageprocessing.Adjustments{Contrast: 1.2, Lightness: 1, Blur: 0},
		},
		{
			name:        "atkinson-mono",
			description: "Black and white reduced diffusion",
			params:      dither.Params{Algorithm: dither.ReducedDiffusion, ColorMode: dither.Monochrome, Intensity: 1, PatternSize: 1},
			adjust:      imageprocessing.DefaultAdjustments(),
		},
		{
			name:        "chunky-pixels",
			description: "Softened black and white error diffusion in 4px blocks",
			params:      dither.Params{Algorithm: dither.ErrorDiffusion, ColorMode: dither.Monochrome, Intensity: 0.8, PatternSize: 4},
			adjust:      imageprocessing.Adjustments{Contrast: 1.1, Lightness: 1, Blur: 1},
		},
	}

	presets := make([]Preset, 0, len(defs))
	for _, d := range defs {
		p := Preset{Name: d.name, Description: d.description, BuiltIn: true}
		p.SetParams(d.params)
		if err := p.SetAdjust(d.adjust); err != nil {
			panic(fmt.Sprintf("built-in preset %s: %v", d.name, err))
		}
		presets = append(presets, p)
	}
	return presets
}

// RunMigrations runs any pending database migrations using gormigrate
func RunMigrations(db *gorm.DB) error {
	logging.InfoWithComponent(logging.ComponentDatabase, "Running database migrations")

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202610010000_create_presets_and_renders",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(GetAllModels()...)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&Render{}, &Preset{})
			},
		},
		{
			ID: "202610010001_seed_builtin_presets",
			Migrate: func(tx *gorm.DB) error {
				for _, preset := range BuiltInPresets() {
					var existing Preset
					err := tx.Where("name = ?", preset.Name).First(&existing).Error
					if err == nil {
						continue
					}
					if !errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("failed to look up preset %s: %w", preset.Name, err)
					}
					if err := tx.Create(&preset).Error; err != nil {
						return fmt.Errorf("failed to create preset %s: %w", preset.Name, err)
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Where("built_in = ?", true).Delete(&Preset{}).Error
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logging.InfoWithComponent(logging.ComponentDatabase, "Database migrations completed")
	return nil
}
