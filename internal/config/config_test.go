package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "MAX_SESSIONS", "RENDER_CACHE_SIZE", "EXPORT_DENSITY", "EXPORT_FILENAME", "QR_ENCODER", "SHUTDOWN_TIMEOUT", "GIN_MODE", "EXPORT_BACKGROUND", "MAX_UPLOAD_BYTES", "MAX_IMAGE_PIXELS"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != ":8080" || cfg.ExportDensity != 3 || cfg.ExportFilename != "poster-qr.png" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "posterqr.yaml")
	doc := "port: \"9000\"\nmax_sessions: 12\nexport_density: 2\nshutdown_timeout: 7s\nqr_encoder: skip2\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAX_SESSIONS", "40")
	t.Setenv("MAX_IMAGE_PIXELS", "1000000")
	t.Setenv("RENDER_CACHE_SIZE", "not-a-number")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.ExportDensity != 2 || cfg.ShutdownTimeout != 7*time.Second || cfg.QREncoder != "skip2" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.MaxImagePixels != 1000000 {
		t.Fatalf("env override ignored: max_image_pixels=%d", cfg.MaxImagePixels)
	}
	if cfg.MaxSessions != 40 {
		t.Fatalf("env override ignored: max_sessions=%d", cfg.MaxSessions)
	}
	if cfg.RenderCacheSize != 64 {
		t.Fatalf("invalid env value not ignored: %d", cfg.RenderCacheSize)
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := Default()
	cfg.ExportDensity = 50
	cfg.MaxSessions = -1
	cfg.MaxImagePixels = 0
	cfg.ExportFilename = " "
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.ExportDensity != 8 || cfg.MaxSessions != 256 || cfg.MaxImagePixels != 4096*4096 || cfg.ExportFilename != "poster-qr.png" {
		t.Fatalf("not clamped: %+v", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := Default()
	cfg.ExportBackground = "blue-ish"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bad background")
	}
	cfg = Default()
	cfg.QREncoder = "zxing"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown encoder")
	}
	cfg = Default()
	cfg.GinMode = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown gin mode")
	}
}
