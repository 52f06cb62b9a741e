package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/treebridge/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Bridge.Mode != DefaultMode {
		t.Errorf("Bridge.Mode = %q, want %q", cfg.Bridge.Mode, DefaultMode)
	}
	if cfg.FrameInterval() != 16*time.Millisecond {
		t.Errorf("FrameInterval() = %v, want 16ms", cfg.FrameInterval())
	}
	if cfg.Producer.Encoding != DefaultEncoding {
		t.Errorf("Producer.Encoding = %q, want %q", cfg.Producer.Encoding, DefaultEncoding)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.Bridge.Mode != DefaultMode {
		t.Errorf("Bridge.Mode = %q, want %q", cfg.Bridge.Mode, DefaultMode)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileNameYAML)
	data := `bridge:
  mode: frame-sync
  defaultTag: div
  frameInterval: 33ms
producer:
  url: ws://localhost:8080/tree
  encoding: binary
log:
  level: debug
s3:
  region: eu-west-1
  endpoint: http://localhost:9000
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if cfg.Bridge.Mode != "frame-sync" || cfg.Bridge.DefaultTag != "div" {
		t.Errorf("Bridge = %+v", cfg.Bridge)
	}
	if cfg.FrameInterval() != 33*time.Millisecond {
		t.Errorf("FrameInterval() = %v, want 33ms", cfg.FrameInterval())
	}
	if cfg.Producer.URL != "ws://localhost:8080/tree" || cfg.Producer.Encoding != "binary" {
		t.Errorf("Producer = %+v", cfg.Producer)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
	}
	if cfg.S3.Region != "eu-west-1" || cfg.S3.Endpoint != "http://localhost:9000" {
		t.Errorf("S3 = %+v", cfg.S3)
	}
	// Unset fields keep their defaults.
	if cfg.Log.Format != DefaultLogFormat || cfg.HandshakeTimeout() != 10*time.Second {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	data := `{"bridge": {"mode": "push"}, "metrics": {"addr": ":9100", "namespace": "ui"}}`
	if err := os.WriteFile(filepath.Join(dir, FileNameJSON), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Metrics.Addr != ":9100" || cfg.Metrics.Namespace != "ui" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoadPrefersYAML(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, FileNameJSON), []byte(`{"log": {"level": "error"}}`), 0644)
	_ = os.WriteFile(filepath.Join(dir, FileNameYML), []byte("log:\n  level: warn\n"), 0644)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	if !errors.HasCode(err, errors.CodeConfigMissing) {
		t.Errorf("missing file err = %v, want %s", err, errors.CodeConfigMissing)
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`{"bridge":`), 0644)
	_, err = LoadFile(bad)
	if !errors.HasCode(err, errors.CodeConfigParse) {
		t.Errorf("bad json err = %v, want %s", err, errors.CodeConfigParse)
	}

	badYAML := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(badYAML, []byte("bridge: [unterminated"), 0644)
	_, err = LoadFile(badYAML)
	if !errors.HasCode(err, errors.CodeConfigParse) {
		t.Errorf("bad yaml err = %v, want %s", err, errors.CodeConfigParse)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mode", func(c *Config) { c.Bridge.Mode = "pull" }},
		{"frame interval", func(c *Config) { c.Bridge.FrameInterval = "soon" }},
		{"zero frame interval", func(c *Config) { c.Bridge.FrameInterval = "0s" }},
		{"encoding", func(c *Config) { c.Producer.Encoding = "xml" }},
		{"handshake timeout", func(c *Config) { c.Producer.HandshakeTimeout = "later" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.HasCode(err, errors.CodeConfigInvalid) {
				t.Errorf("Validate() = %v, want %s", err, errors.CodeConfigInvalid)
			}
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := New()
	cfg.Bridge.FrameInterval = "bogus"
	cfg.Producer.HandshakeTimeout = "bogus"
	cfg.Log.Level = "bogus"

	if cfg.FrameInterval() != 16*time.Millisecond {
		t.Errorf("FrameInterval() = %v, want 16ms", cfg.FrameInterval())
	}
	if cfg.HandshakeTimeout() != 10*time.Second {
		t.Errorf("HandshakeTimeout() = %v, want 10s", cfg.HandshakeTimeout())
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, want info", cfg.LogLevel())
	}
}
