package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGetFileFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("  hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_PASSWORD_FILE", path)

	if got := Get("DB_PASSWORD", "def"); got != "hunter2" {
		t.Errorf("Get with _FILE = %q, want hunter2", got)
	}
	t.Setenv("DB_PASSWORD", "direct")
	if got := Get("DB_PASSWORD", "def"); got != "direct" {
		t.Errorf("Get prefers the variable itself, got %q", got)
	}
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_BOOL", "No")
	t.Setenv("TEST_DURATION", "2d")
	t.Setenv("TEST_LIST", " Evil.com, ,tracker.example ")

	if got := GetInt("TEST_INT", 1); got != 42 {
		t.Errorf("GetInt = %d", got)
	}
	if got := GetInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetInt fallback = %d", got)
	}
	if got := GetBool("TEST_BOOL", true); got {
		t.Errorf("GetBool(No) = true")
	}
	if got := GetDuration("TEST_DURATION", 0); got != 48*time.Hour {
		t.Errorf("GetDuration = %v", got)
	}
	if diff := cmp.Diff([]string{"evil.com", "tracker.example"}, GetList("TEST_LIST")); diff != "" {
		t.Errorf("GetList mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_TYPE", "DATA_DIR", "MAX_UPLOAD_MB", "MAX_IMAGE_DIMENSION",
		"RATE_LIMIT_PER_MINUTE", "FETCH_TIMEOUT", "BLOCK_PRIVATE_IPS", "BLOCKED_DOMAINS", "SHUTDOWN_TIMEOUT",
		"STORE_RENDERS", "RENDERS_DIR", "RENDER_RETENTION", "RETENTION_INTERVAL"} {
		t.Setenv(k, "")
	}

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Port != "8000" || s.Database.Type != "sqlite" || s.MaxUploadBytes != 20<<20 {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.Database.Path != filepath.Join("/data", "ditherstudio.db") {
		t.Errorf("sqlite path = %q", s.Database.Path)
	}
	if !s.BlockPrivateIPs || s.FetchTimeout != 30*time.Second || s.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected fetch/shutdown defaults: %+v", s)
	}
	if !s.StoreRenders || s.RendersDir != filepath.Join("/data", "renders") || s.RenderRetention != 30*24*time.Hour || s.RetentionInterval != time.Hour {
		t.Errorf("unexpected render storage defaults: %+v", s)
	}
	if s.MaxPixels() != 16384*16384 {
		t.Errorf("MaxPixels = %d", s.MaxPixels())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, k := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_TYPE", "mysql")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for unsupported DB_TYPE")
	}

	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("MAX_UPLOAD_MB", "0")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for zero upload limit")
	}

	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("MAX_IMAGE_DIMENSION", "0")
	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxPixels() != 0 {
		t.Errorf("MaxPixels with no dimension limit = %d, want 0", s.MaxPixels())
	}
	if want := "host=localhost port=5432 user=ditherstudio password= dbname=ditherstudio sslmode=disable"; s.Database.DSN() != want {
		t.Errorf("DSN = %q", s.Database.DSN())
	}
}
