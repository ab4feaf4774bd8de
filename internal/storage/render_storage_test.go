package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSaveStatDelete(t *testing.T) {
	s := NewRenderStorage(filepath.Join(t.TempDir(), "renders"))
	id := uuid.New()

	if _, err := s.Stat(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Stat before save = %v, want ErrNotFound", err)
	}

	sum, err := s.Save(id, []byte("abc"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if sum != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("checksum = %s", sum)
	}

	data, err := os.ReadFile(s.Path(id))
	if err != nil || !bytes.Equal(data, []byte("abc")) {
		t.Fatalf("stored data = %q, %v", data, err)
	}
	if info, err := s.Stat(id); err != nil || info.Size() != 3 {
		t.Errorf("Stat = %v, %v", info, err)
	}

	entries, _ := os.ReadDir(s.BasePath())
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(id); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	s := NewRenderStorage(t.TempDir())
	oldID, newID := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{oldID, newID} {
		if _, err := s.Save(id, []byte("png")); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(s.Path(oldID), past, past); err != nil {
		t.Fatal(err)
	}
	// Files other than outputs are left alone.
	other := filepath.Join(s.BasePath(), "notes.txt")
	os.WriteFile(other, nil, 0o644)
	os.Chtimes(other, past, past)

	removed, err := s.CleanupOlderThan(24 * time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("CleanupOlderThan = %d, %v", removed, err)
	}
	if _, err := s.Stat(oldID); !errors.Is(err, ErrNotFound) {
		t.Errorf("old render still present")
	}
	if _, err := s.Stat(newID); err != nil {
		t.Errorf("new render removed: %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}

	if n, err := NewRenderStorage(filepath.Join(t.TempDir(), "missing")).CleanupOlderThan(time.Hour); err != nil || n != 0 {
		t.Errorf("missing directory = %d, %v", n, err)
	}
}
