package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Database holds the DB_* settings.
type Database struct {
	Type     string // sqlite or postgres
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	// Path is the SQLite file, derived from DATA_DIR.
	Path string
}

// DSN returns the PostgreSQL connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Server is the complete runtime configuration of the service.
type Server struct {
	Port     string
	GinMode  string
	DataDir  string
	Database Database

	PresetsFile        string
	MaxUploadBytes     int64
	MaxImageDimension  int
	RateLimitPerMinute int
	FetchTimeout       time.Duration
	BlockPrivateIPs    bool
	BlockedDomains     []string
	ShutdownTimeout    time.Duration

	// StoreRenders keeps encoded outputs under RendersDir for re-download.
	StoreRenders      bool
	RendersDir        string
	RenderRetention   time.Duration // 0 keeps history forever
	RetentionInterval time.Duration
}

// Load reads the configuration from the environment.
func Load() (*Server, error) {
	dataDir := Get("DATA_DIR", "/data")
	s := &Server{
		Port:    Get("PORT", "8000"),
		GinMode: Get("GIN_MODE", "release"),
		DataDir: dataDir,
		Database: Database{
			Type:     strings.ToLower(Get("DB_TYPE", "sqlite")),
			Host:     Get("DB_HOST", "localhost"),
			Port:     GetInt("DB_PORT", 5432),
			User:     Get("DB_USER", "ditherstudio"),
			Password: Get("DB_PASSWORD", ""),
			Name:     Get("DB_NAME", "ditherstudio"),
			SSLMode:  Get("DB_SSLMODE", "disable"),
			Path:     filepath.Join(dataDir, "ditherstudio.db"),
		},
		PresetsFile:        Get("PRESETS_FILE", ""),
		MaxUploadBytes:     int64(GetInt("MAX_UPLOAD_MB", 20)) << 20,
		MaxImageDimension:  GetInt("MAX_IMAGE_DIMENSION", 4096),
		RateLimitPerMinute: GetInt("RATE_LIMIT_PER_MINUTE", 30),
		FetchTimeout:       GetDuration("FETCH_TIMEOUT", 30*time.Second),
		BlockPrivateIPs:    GetBool("BLOCK_PRIVATE_IPS", true),
		BlockedDomains:     GetList("BLOCKED_DOMAINS"),
		ShutdownTimeout:    GetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		StoreRenders:       GetBool("STORE_RENDERS", true),
		RendersDir:         Get("RENDERS_DIR", filepath.Join(dataDir, "renders")),
		RenderRetention:    GetDuration("RENDER_RETENTION", 30*24*time.Hour),
		RetentionInterval:  GetDuration("RETENTION_INTERVAL", time.Hour),
	}

	switch s.Database.Type {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (use sqlite or postgres)", s.Database.Type)
	}
	if s.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if s.MaxImageDimension < 0 {
		return nil, fmt.Errorf("MAX_IMAGE_DIMENSION must not be negative")
	}
	return s, nil
}

// MaxPixels is the decode limit derived from MaxImageDimension. Sources may
// be up to four times the output dimension on each side before they are
// scaled down; 0 means unlimited.
func (s *Server) MaxPixels() int {
	if s.MaxImageDimension == 0 {
		return 0
	}
	side := s.MaxImageDimension * 4
	return side * side
}
