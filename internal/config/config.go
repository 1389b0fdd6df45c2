// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cristianadrielbraun/posterqr/internal/placement"
)

// Config holds runtime configuration.
type Config struct {
	Port            string        `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	LogEnv          string        `yaml:"log_env"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Uploads larger than this are refused before decoding.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// Images with more pixels than this are refused from their header.
	MaxImagePixels int64 `yaml:"max_image_pixels"`
	// Sessions beyond this count evict the least recently used one.
	MaxSessions     int    `yaml:"max_sessions"`
	RenderCacheSize int    `yaml:"render_cache_size"`
	QREncoder       string `yaml:"qr_encoder"`

	ExportDensity    float64 `yaml:"export_density"`
	ExportBackground string  `yaml:"export_background"`
	ExportFilename   string  `yaml:"export_filename"`
}

// Default returns a Config populated with standard defaults.
func Default() *Config {
	return &Config{
		Port:             "8080",
		GinMode:          "release",
		LogEnv:           "dev",
		LogLevel:         "info",
		ShutdownTimeout:  5 * time.Second,
		MaxUploadBytes:   20 << 20,
		MaxImagePixels:   4096 * 4096,
		MaxSessions:      256,
		RenderCacheSize:  64,
		QREncoder:        "yeqown",
		ExportDensity:    3,
		ExportBackground: "#ffffff",
		ExportFilename:   "poster-qr.png",
	}
}

// Load reads the YAML file at path, if any, then applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("config file not found, using defaults", zap.String("path", path))
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(logger *zap.Logger) {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.LogEnv = getEnv("LOG_ENV", c.LogEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.QREncoder = getEnv("QR_ENCODER", c.QREncoder)
	c.ExportBackground = getEnv("EXPORT_BACKGROUND", c.ExportBackground)
	c.ExportFilename = getEnv("EXPORT_FILENAME", c.ExportFilename)
	c.ShutdownTimeout = parseDuration(logger, "SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.MaxUploadBytes = int64(parseInt(logger, "MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.MaxImagePixels = int64(parseInt(logger, "MAX_IMAGE_PIXELS", int(c.MaxImagePixels)))
	c.MaxSessions = parseInt(logger, "MAX_SESSIONS", c.MaxSessions)
	c.RenderCacheSize = parseInt(logger, "RENDER_CACHE_SIZE", c.RenderCacheSize)
	c.ExportDensity = parseFloat(logger, "EXPORT_DENSITY", c.ExportDensity)
}

// Validate clamps numeric settings to safe ranges and rejects values that
// cannot be repaired.
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 20 << 20
	}
	if c.MaxImagePixels <= 0 {
		c.MaxImagePixels = 4096 * 4096
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 256
	}
	if c.RenderCacheSize < 0 {
		c.RenderCacheSize = 0
	}
	if c.ExportDensity <= 0 {
		c.ExportDensity = 3
	}
	if c.ExportDensity > 8 {
		c.ExportDensity = 8
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if strings.TrimSpace(c.ExportFilename) == "" {
		c.ExportFilename = "poster-qr.png"
	}
	if _, err := placement.ParseColor(c.ExportBackground); err != nil {
		return fmt.Errorf("export_background: %w", err)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("gin_mode: unknown mode %q", c.GinMode)
	}
	switch strings.ToLower(c.QREncoder) {
	case "", "yeqown", "skip2":
	default:
		return fmt.Errorf("qr_encoder: unknown encoder %q", c.QREncoder)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseInt(logger *zap.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn(fmt.Sprintf("Invalid %s, using default", key),
			zap.String("value", v),
			zap.Int("default", fallback),
			zap.Error(err))
		return fallback
	}
	return i
}

func parseFloat(logger *zap.Logger, key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn(fmt.Sprintf("Invalid %s, using default", key),
			zap.String("value", v),
			zap.Float64("default", fallback),
			zap.Error(err))
		return fallback
	}
	return f
}

func parseDuration(logger *zap.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn(fmt.Sprintf("Invalid %s, using default", key),
			zap.String("value", v),
			zap.Duration("default", fallback),
			zap.Error(err))
		return fallback
	}
	return d
}
