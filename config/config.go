// Package config loads folio settings from YAML.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/folio/imagecache"
	"github.com/tsawler/folio/layout"
)

// Config holds all folio configuration.
type Config struct {
	// CacheRoot is the image cache directory. Empty disables the cache and
	// images are embedded as data URIs.
	CacheRoot         string `yaml:"cache_root"`
	PublicCachePrefix string `yaml:"public_cache_prefix"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Server ServerConfig `yaml:"server"`
	Layout LayoutConfig `yaml:"layout"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxUploadBytes bounds the body of a conversion request.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// LayoutConfig mirrors layout.ParagraphConfig.
type LayoutConfig struct {
	LineToleranceFactor float64 `yaml:"line_tolerance_factor"`
	ParagraphGapFactor  float64 `yaml:"paragraph_gap_factor"`
	LongerLineRatio     float64 `yaml:"longer_line_ratio"`
	TypicalGapFactor    float64 `yaml:"typical_gap_factor"`
	DefaultHeight       float64 `yaml:"default_height"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.PublicCachePrefix == "" {
		c.PublicCachePrefix = imagecache.DefaultPublicPrefix
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 256 << 20
	}

	def := layout.DefaultParagraphConfig()
	if c.Layout.LineToleranceFactor <= 0 {
		c.Layout.LineToleranceFactor = def.LineToleranceFactor
	}
	if c.Layout.ParagraphGapFactor <= 0 {
		c.Layout.ParagraphGapFactor = def.GapFactor
	}
	if c.Layout.LongerLineRatio <= 0 {
		c.Layout.LongerLineRatio = def.LongerLineRatio
	}
	if c.Layout.TypicalGapFactor <= 0 {
		c.Layout.TypicalGapFactor = def.TypicalGapFactor
	}
	if c.Layout.DefaultHeight <= 0 {
		c.Layout.DefaultHeight = def.DefaultHeight
	}
}

// LoadFile reads a YAML config file. Missing fields take their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.defaults()
	return cfg, nil
}

// ParagraphConfig returns the layout section as grouper parameters.
func (c *Config) ParagraphConfig() layout.ParagraphConfig {
	pc := layout.DefaultParagraphConfig()
	pc.LineToleranceFactor = c.Layout.LineToleranceFactor
	pc.GapFactor = c.Layout.ParagraphGapFactor
	pc.LongerLineRatio = c.Layout.LongerLineRatio
	pc.TypicalGapFactor = c.Layout.TypicalGapFactor
	pc.DefaultHeight = c.Layout.DefaultHeight
	return pc
}

// Level maps LogLevel onto a slog level. Unknown names mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w in LogFormat ("json" or "text").
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
