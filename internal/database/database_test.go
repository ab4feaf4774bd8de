package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherstudio/internal/config"
	"github.com/rmitchellscott/ditherstudio/internal/dither"
	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := openSQLite(":memory:", "release")
	if err != nil {
		t.Fatalf("openSQLite: %v", err)
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func userPreset(name string) *Preset {
	p := &Preset{Name: name, Algorithm: "bayer", ColorMode: "bw", Intensity: 0.5, PatternSize: 3}
	if err := p.SetAdjust(imageprocessing.Adjustments{Contrast: 1.5, Lightness: 1, Blur: 0}); err != nil {
		panic(err)
	}
	return p
}

func TestMigrationsSeedBuiltInPresets(t *testing.T) {
	db := setupTestDB(t)

	// Running again must not duplicate seeds.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}

	presets, err := NewPresetService(db).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, p := range presets {
		if !p.BuiltIn {
			t.Errorf("preset %s not marked built-in", p.Name)
		}
		names = append(names, p.Name)
	}
	want := []string{"atkinson-mono", "bayer-poster", "chunky-pixels", "classic-floyd-steinberg"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("built-in presets mismatch (-want +got):\n%s", diff)
	}
}

func TestBuiltInPresetsAreValid(t *testing.T) {
	for _, p := range BuiltInPresets() {
		opts, err := p.Options(0)
		if err != nil {
			t.Fatalf("%s: %v", p.Name, err)
		}
		if err := opts.Validate(); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
	}
}

func TestPresetCreateNormalizesNames(t *testing.T) {
	svc := NewPresetService(setupTestDB(t))

	p := userPreset("  Newspaper ")
	p.BuiltIn = true
	if err := svc.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == uuid.Nil || p.BuiltIn {
		t.Errorf("created preset = %+v", p)
	}

	got, err := svc.Resolve("newspaper")
	if err != nil {
		t.Fatalf("Resolve by name: %v", err)
	}
	if got.Name != "Newspaper" || got.Algorithm != "ordered" || got.ColorMode != "monochrome" {
		t.Errorf("stored preset = %+v", got)
	}
	byID, err := svc.Resolve(p.ID.String())
	if err != nil || byID.ID != p.ID {
		t.Errorf("Resolve by id = %v, %v", byID, err)
	}

	opts, err := got.Options(512)
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	want := imageprocessing.ProcessingOptions{
		Dither:       dither.Params{Algorithm: dither.Ordered, ColorMode: dither.Monochrome, Intensity: 0.5, PatternSize: 3},
		Adjust:       imageprocessing.Adjustments{Contrast: 1.5, Lightness: 1},
		MaxDimension: 512,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}
}

func TestPresetCreateRejections(t *testing.T) {
	svc := NewPresetService(setupTestDB(t))

	if err := svc.Create(userPreset("Classic-Floyd-Steinberg")); !errors.Is(err, ErrDuplicatePresetName) {
		t.Errorf("duplicate of built-in name: %v", err)
	}

	bad := userPreset("bad")
	bad.PatternSize = 0
	if err := svc.Create(bad); !errors.Is(err, dither.ErrInvalidPatternSize) {
		t.Errorf("pattern size 0: %v", err)
	}

	bad = userPreset("bad")
	bad.Algorithm = "sierra"
	if err := svc.Create(bad); !errors.Is(err, dither.ErrInvalidAlgorithm) {
		t.Errorf("unknown algorithm: %v", err)
	}

	if err := svc.Create(userPreset("   ")); err == nil {
		t.Errorf("expected error for blank name")
	}

	if _, err := svc.Resolve(uuid.NewString()); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("Resolve unknown id: %v", err)
	}
}

func TestPresetUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPresetService(db)
	renders := NewRenderService(db)

	p := userPreset("mine")
	if err := svc.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(p.ID, func(u *Preset) {
		u.Intensity = 0
		u.Algorithm = "atkinson"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Intensity != 0 || updated.Algorithm != "reduced-diffusion" {
		t.Errorf("updated preset = %+v", updated)
	}
	reloaded, _ := svc.Get(p.ID)
	if reloaded.Intensity != 0 {
		t.Errorf("intensity 0 was not persisted: %v", reloaded.Intensity)
	}

	if _, err := svc.Update(p.ID, func(u *Preset) { u.Name = "atkinson-mono" }); !errors.Is(err, ErrDuplicatePresetName) {
		t.Errorf("rename onto built-in: %v", err)
	}

	builtIn, _ := svc.GetByName("bayer-poster")
	if _, err := svc.Update(builtIn.ID, func(u *Preset) { u.Intensity = 0.1 }); !errors.Is(err, ErrBuiltInPreset) {
		t.Errorf("update built-in: %v", err)
	}
	if err := svc.Delete(builtIn.ID); !errors.Is(err, ErrBuiltInPreset) {
		t.Errorf("delete built-in: %v", err)
	}

	r := &Render{PresetID: &p.ID, Algorithm: "reduced-diffusion", ColorMode: "color", Intensity: 0, PatternSize: 3}
	if err := renders.Record(r); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := svc.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(p.ID); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
	history, err := renders.Recent(0)
	if err != nil || len(history) != 1 {
		t.Fatalf("Recent = %v, %v", history, err)
	}
	if history[0].PresetID != nil {
		t.Errorf("render still references deleted preset")
	}
}

func TestRenderHistory(t *testing.T) {
	svc := NewRenderService(setupTestDB(t))

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, alg := range []string{"ordered", "error-diffusion", "ordered"} {
		r := &Render{Algorithm: alg, ColorMode: "color", PatternSize: 1, Width: i + 1, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := svc.Record(r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := svc.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Width != 3 || recent[1].Width != 2 {
		t.Errorf("Recent(2) order = %+v", recent)
	}

	counts, err := svc.CountByAlgorithm()
	if err != nil {
		t.Fatalf("CountByAlgorithm: %v", err)
	}
	if diff := cmp.Diff(map[string]int64{"ordered": 2, "error-diffusion": 1}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePresets(t *testing.T) {
	doc := `
presets:
  - name: newspaper
    algorithm: Bayer
    color_mode: mono
    pattern_size: 2
    adjustments:
      contrast: 1.3
  - name: defaults-only
`
	presets, err := ParsePresets([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePresets: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("got %d presets", len(presets))
	}

	opts, _ := presets[0].Options(0)
	want := dither.Params{Algorithm: dither.Ordered, ColorMode: dither.Monochrome, Intensity: 1, PatternSize: 2}
	if opts.Dither != want || opts.Adjust != (imageprocessing.Adjustments{Contrast: 1.3, Lightness: 1}) {
		t.Errorf("newspaper options = %+v", opts)
	}
	opts, _ = presets[1].Options(0)
	if opts.Dither != dither.DefaultParams() || !opts.Adjust.IsIdentity() {
		t.Errorf("defaults-only options = %+v", opts)
	}

	for name, bad := range map[string]string{
		"unknown field":     "presets:\n  - name: x\n    colour: red\n",
		"bad pattern size":  "presets:\n  - name: x\n    pattern_size: 0\n",
		"blur out of range": "presets:\n  - name: x\n    adjustments:\n      blur: 50\n",
		"missing name":      "presets:\n  - algorithm: ordered\n",
	} {
		if _, err := ParsePresets([]byte(bad)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if presets, err := ParsePresets(nil); err != nil || len(presets) != 0 {
		t.Errorf("empty document = %v, %v", presets, err)
	}
}

func TestSyncPresetsFile(t *testing.T) {
	svc := NewPresetService(setupTestDB(t))
	path := filepath.Join(t.TempDir(), "presets.yaml")
	write := func(doc string) {
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("presets:\n  - name: poster\n    intensity: 0.7\n  - name: bayer-poster\n")
	created, updated, err := svc.SyncPresetsFile(path)
	if err != nil || created != 1 || updated != 0 {
		t.Fatalf("first sync = %d, %d, %v", created, updated, err)
	}

	write("presets:\n  - name: poster\n    intensity: 0.3\n")
	created, updated, err = svc.SyncPresetsFile(path)
	if err != nil || created != 0 || updated != 1 {
		t.Fatalf("second sync = %d, %d, %v", created, updated, err)
	}
	p, err := svc.GetByName("poster")
	if err != nil || p.Intensity != 0.3 {
		t.Errorf("poster after sync = %+v, %v", p, err)
	}

	builtIn, _ := svc.GetByName("bayer-poster")
	if !builtIn.BuiltIn || builtIn.PatternSize != 2 {
		t.Errorf("built-in preset was overwritten: %+v", builtIn)
	}

	if _, _, err := svc.SyncPresetsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open(config.Database{Type: "mysql"}, "release"); err == nil {
		t.Errorf("expected error for unsupported type")
	}
}

func TestInitializeSQLiteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := config.Database{Type: "sqlite", Path: filepath.Join(dir, "ditherstudio.db")}
	if err := Initialize(cfg, "release"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() {
		Close()
		DB = nil
	})
	if GetDB() == nil {
		t.Fatal("GetDB returned nil")
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
