package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrRenderNotFound is returned by Get for unknown IDs.
var ErrRenderNotFound = errors.New("render not found")

const (
	DefaultRenderLimit = 20
	MaxRenderLimit     = 200
)

// RenderService records and lists render history.
type RenderService struct {
	db *gorm.DB
}

// NewRenderService creates a new render service
func NewRenderService(db *gorm.DB) *RenderService {
	return &RenderService{db: db}
}

// Record stores a finished render.
func (s *RenderService) Record(render *Render) error {
	if err := s.db.Create(render).Error; err != nil {
		return fmt.Errorf("failed to record render: %w", err)
	}
	return nil
}

// Get returns one render.
func (s *RenderService) Get(id uuid.UUID) (*Render, error) {
	var render Render
	if err := s.db.First(&render, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRenderNotFound
		}
		return nil, fmt.Errorf("failed to get render: %w", err)
	}
	return &render, nil
}

// DeleteOlderThan removes renders created before cutoff and returns their
// IDs.
func (s *RenderService) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Render{}).Where("created_at < ?", cutoff).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("id IN ?", ids).Delete(&Render{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prune renders: %w", err)
	}
	return ids, nil
}

// Recent returns the newest renders first. limit is clamped to
// [1, MaxRenderLimit]; 0 selects DefaultRenderLimit.
func (s *RenderService) Recent(limit int) ([]Render, error) {
	switch {
	case limit <= 0:
		limit = DefaultRenderLimit
	case limit > MaxRenderLimit:
		limit = MaxRenderLimit
	}

	var renders []Render
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&renders).Error; err != nil {
		return nil, fmt.Errorf("failed to list renders: %w", err)
	}
	return renders, nil
}

// CountByAlgorithm returns the number of recorded renders per algorithm.
func (s *RenderService) CountByAlgorithm() (map[string]int64, error) {
	var rows []struct {
		Algorithm string
		Count     int64
	}
	if err := s.db.Model(&Render{}).Select("algorithm, COUNT(*) AS count").Group("algorithm").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count renders: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Algorithm] = row.Count
	}
	return counts, nil
}
