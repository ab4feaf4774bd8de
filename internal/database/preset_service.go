package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPresetNotFound      = errors.New("preset not found")
	ErrBuiltInPreset       = errors.New("built-in presets cannot be modified")
	ErrDuplicatePresetName = errors.New("a preset with this name already exists")
	ErrInvalidPreset       = errors.New("invalid preset")
)

// PresetService handles database operations for presets
type PresetService struct {
	db *gorm.DB
}

// NewPresetService creates a new preset service
func NewPresetService(db *gorm.DB) *PresetService {
	return &PresetService{db: db}
}

// List returns built-in presets first, then the rest, each ordered by name.
func (s *PresetService) List() ([]Preset, error) {
	var presets []Preset
	if err := s.db.Order("built_in DESC").Order("name ASC").Find(&presets).Error; err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	return presets, nil
}

// Get returns the preset with id.
func (s *PresetService) Get(id uuid.UUID) (*Preset, error) {
	var preset Preset
	if err := s.db.First(&preset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return &preset, nil
}

// GetByName looks a preset up by name, ignoring case.
func (s *PresetService) GetByName(name string) (*Preset, error) {
	var preset Preset
	if err := s.db.Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&preset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return &preset, nil
}

// Resolve accepts either a preset ID or a preset name.
func (s *PresetService) Resolve(ref string) (*Preset, error) {
	if id, err := uuid.Parse(strings.TrimSpace(ref)); err == nil {
		return s.Get(id)
	}
	return s.GetByName(ref)
}

// Create validates and stores a user preset.
func (s *PresetService) Create(preset *Preset) error {
	preset.BuiltIn = false
	if err := preset.Normalize(); err != nil {
		return err
	}
	if err := s.checkNameFree(preset.Name, uuid.Nil); err != nil {
		return err
	}
	if err := s.db.Create(preset).Error; err != nil {
		return fmt.Errorf("failed to create preset: %w", err)
	}
	return nil
}

// Update loads the preset, applies changes and saves it. Built-in presets
// are rejected.
func (s *PresetService) Update(id uuid.UUID, changes func(*Preset)) (*Preset, error) {
	preset, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if preset.BuiltIn {
		return nil, ErrBuiltInPreset
	}

	changes(preset)
	preset.ID = id
	preset.BuiltIn = false
	if err := preset.Normalize(); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(preset.Name, id); err != nil {
		return nil, err
	}
	if err := s.db.Save(preset).Error; err != nil {
		return nil, fmt.Errorf("failed to update preset: %w", err)
	}
	return preset, nil
}

// Delete removes a user preset. Renders that used it keep their settings
// and lose the reference.
func (s *PresetService) Delete(id uuid.UUID) error {
	preset, err := s.Get(id)
	if err != nil {
		return err
	}
	if preset.BuiltIn {
		return ErrBuiltInPreset
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Render{}).Where("preset_id = ?", id).Update("preset_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach renders: %w", err)
		}
		if err := tx.Delete(&Preset{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete preset: %w", err)
		}
		return nil
	})
}

// Upsert creates the preset or overwrites the user preset of the same name.
// It reports whether a row was created.
func (s *PresetService) Upsert(preset *Preset) (bool, error) {
	preset.BuiltIn = false
	if err := preset.Normalize(); err != nil {
		return false, err
	}

	existing, err := s.GetByName(preset.Name)
	switch {
	case errors.Is(err, ErrPresetNotFound):
		if err := s.db.Create(preset).Error; err != nil {
			return false, fmt.Errorf("failed to create preset: %w", err)
		}
		return true, nil
	case err != nil:
		return false, err
	case existing.BuiltIn:
		return false, fmt.Errorf("%w: %s", ErrBuiltInPreset, existing.Name)
	}

	preset.ID = existing.ID
	preset.CreatedAt = existing.CreatedAt
	if err := s.db.Save(preset).Error; err != nil {
		return false, fmt.Errorf("failed to update preset: %w", err)
	}
	return false, nil
}

func (s *PresetService) checkNameFree(name string, self uuid.UUID) error {
	var count int64
	q := s.db.Model(&Preset{}).Where("LOWER(name) = LOWER(?)", name)
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check preset name: %w", err)
	}
	if count > 0 {
		return ErrDuplicatePresetName
	}
	return nil
}
