package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/treebridge/internal/errors"
)

// Config file names, in lookup order.
const (
	FileNameYAML = "treebridge.yaml"
	FileNameYML  = "treebridge.yml"
	FileNameJSON = "treebridge.json"
)

// Defaults.
const (
	DefaultMode             = "push"
	DefaultFrameInterval    = "16ms"
	DefaultEncoding         = "json"
	DefaultHandshakeTimeout = "10s"
	DefaultMetricsAddr      = ":9090"
	DefaultNamespace        = "treebridge"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultTracerName       = "github.com/vango-dev/treebridge"
)

// Config is the complete treebridge configuration.
type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge" json:"bridge"`
	Producer ProducerConfig `yaml:"producer" json:"producer"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Tracing  TracingConfig  `yaml:"tracing" json:"tracing"`
	S3       S3Config       `yaml:"s3" json:"s3"`

	// path stores the path where the config was loaded from.
	path string
}

// BridgeConfig configures the root bridge.
type BridgeConfig struct {
	// Mode is "push" or "frame-sync".
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`

	// DefaultTag replaces an absent node tag.
	DefaultTag string `yaml:"defaultTag,omitempty" json:"defaultTag,omitempty"`

	// FrameInterval is the frame-sync tick period (e.g., "16ms").
	FrameInterval string `yaml:"frameInterval,omitempty" json:"frameInterval,omitempty"`
}

// ProducerConfig configures the websocket producer connection.
type ProducerConfig struct {
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// Encoding is "json" (text frames) or "binary" (protocol frames).
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`

	HandshakeTimeout string `yaml:"handshakeTimeout,omitempty" json:"handshakeTimeout,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics and /healthz. Empty disables
	// the server.
	Addr      string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// TracingConfig configures the OpenTelemetry tracer.
type TracingConfig struct {
	TracerName string `yaml:"tracerName,omitempty" json:"tracerName,omitempty"`
}

// S3Config configures recorded stream downloads.
type S3Config struct {
	Region string `yaml:"region,omitempty" json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO. Setting it also
	// selects path-style addressing.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Mode:          DefaultMode,
			FrameInterval: DefaultFrameInterval,
		},
		Producer: ProducerConfig{
			Encoding:         DefaultEncoding,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
	}
}

// Load reads the first config file found in dir. A directory without a
// config file yields the defaults.
func Load(dir string) (*Config, error) {
	for _, name := range []string{FileNameYAML, FileNameYML, FileNameJSON} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads a config file. Files ending in .json are parsed as JSON,
// anything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigMissing).
				WithDetail("No config file at " + path)
		}
		return nil, errors.New(errors.CodeConfigParse).Wrap(err)
	}

	cfg := New()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.path = path
	cfg.applyDefaults()

	return cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.Bridge.Mode == "" {
		c.Bridge.Mode = DefaultMode
	}
	if c.Bridge.FrameInterval == "" {
		c.Bridge.FrameInterval = DefaultFrameInterval
	}
	if c.Producer.Encoding == "" {
		c.Producer.Encoding = DefaultEncoding
	}
	if c.Producer.HandshakeTimeout == "" {
		c.Producer.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Bridge.Mode {
	case "push", "frame-sync":
	default:
		return invalid("bridge.mode %q must be push or frame-sync", c.Bridge.Mode)
	}
	if d, err := time.ParseDuration(c.Bridge.FrameInterval); err != nil || d <= 0 {
		return invalid("bridge.frameInterval %q must be a positive duration", c.Bridge.FrameInterval)
	}

	switch c.Producer.Encoding {
	case "json", "binary":
	default:
		return invalid("producer.encoding %q must be json or binary", c.Producer.Encoding)
	}
	if d, err := time.ParseDuration(c.Producer.HandshakeTimeout); err != nil || d < 0 {
		return invalid("producer.handshakeTimeout %q must be a duration", c.Producer.HandshakeTimeout)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return invalid("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.CodeConfigInvalid).WithDetailf(format, args...)
}

// FrameInterval returns the parsed frame-sync tick period.
func (c *Config) FrameInterval() time.Duration {
	d, err := time.ParseDuration(c.Bridge.FrameInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultFrameInterval)
	}
	return d
}

// HandshakeTimeout returns the parsed websocket handshake timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Producer.HandshakeTimeout)
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(DefaultHandshakeTimeout)
	}
	return d
}

// LogLevel returns the parsed slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
