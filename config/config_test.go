package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/folio/layout"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.CacheRoot != "" {
		t.Errorf("Expected cache disabled by default, got %q", cfg.CacheRoot)
	}
	if cfg.PublicCachePrefix != "/cache" {
		t.Errorf("Expected /cache prefix, got %q", cfg.PublicCachePrefix)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected :8080, got %q", cfg.Server.Addr)
	}
	if got := cfg.ParagraphConfig(); got != layout.DefaultParagraphConfig() {
		t.Errorf("Expected default paragraph config, got %+v", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	data := `cache_root: /var/cache/folio
log_level: debug
log_format: json
server:
  addr: 127.0.0.1:9000
layout:
  paragraph_gap_factor: 2.0
  longer_line_ratio: 1.5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.CacheRoot != "/var/cache/folio" {
		t.Errorf("Expected cache root, got %q", cfg.CacheRoot)
	}
	if cfg.PublicCachePrefix != "/cache" {
		t.Errorf("Expected default prefix, got %q", cfg.PublicCachePrefix)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Expected server addr, got %q", cfg.Server.Addr)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", cfg.Level())
	}

	pc := cfg.ParagraphConfig()
	if pc.GapFactor != 2.0 || pc.LongerLineRatio != 1.5 {
		t.Errorf("Expected overridden factors, got %+v", pc)
	}
	if pc.LineToleranceFactor != 0.6 || pc.DefaultHeight != 10 {
		t.Errorf("Expected defaults for unset factors, got %+v", pc)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := Parse([]byte("cache_rot: /tmp\n")); err == nil {
		t.Error("Expected error for unknown key")
	}
	if _, err := Parse([]byte("layout: [1, 2]\n")); err == nil {
		t.Error("Expected error for malformed layout section")
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Expected empty input to be valid, got %v", err)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("Expected logging defaults, got %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "page", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected info record filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"page":3`) {
		t.Errorf("Expected JSON record, got %q", out)
	}
}
