// Package storage keeps encoded render outputs on the local filesystem.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

// ErrNotFound is returned when no output is stored for a render.
var ErrNotFound = errors.New("render output not found")

const fileExt = ".png"

// RenderStorage stores one PNG per render ID under basePath.
type RenderStorage struct {
	basePath string
}

// NewRenderStorage creates a new render storage rooted at basePath.
func NewRenderStorage(basePath string) *RenderStorage {
	return &RenderStorage{basePath: basePath}
}

// BasePath returns the directory holding the stored outputs.
func (s *RenderStorage) BasePath() string {
	return s.basePath
}

// Path returns where the output of id is stored.
func (s *RenderStorage) Path(id uuid.UUID) string {
	return filepath.Join(s.basePath, id.String()+fileExt)
}

// Save writes data for id and returns its SHA-256 as hex. The file is
// written to a temporary name and renamed so readers never see a partial
// image.
func (s *RenderStorage) Save(id uuid.UUID, data []byte) (string, error) {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create render directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write render %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write render %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(id)); err != nil {
		return "", fmt.Errorf("failed to store render %s: %w", id, err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Stat reports the stored file for id, or ErrNotFound.
func (s *RenderStorage) Stat(id uuid.UUID) (os.FileInfo, error) {
	info, err := os.Stat(s.Path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return info, err
}

// Delete removes the output of id. Missing files are not an error.
func (s *RenderStorage) Delete(id uuid.UUID) error {
	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete render %s: %w", id, err)
	}
	return nil
}

// CleanupOlderThan removes stored outputs whose modification time is older
// than maxAge and returns how many were removed.
func (s *RenderStorage) CleanupOlderThan(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read render directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			fullPath := filepath.Join(s.basePath, entry.Name())
			if err := os.Remove(fullPath); err != nil {
				logging.Warn("Failed to remove old render", "path", fullPath, "error", err)
				continue
			}
			removed++
		}
	}

	return removed, nil
}
