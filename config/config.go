package config

import (
	"fmt"
	"time"

	"github.com/c360/flowpipe/errors"
)

// Config is the complete application configuration: platform identity,
// NATS connectivity, engine sizing, sink behavior, logging, and metrics.
type Config struct {
	Version  string         `yaml:"version"`
	Platform PlatformConfig `yaml:"platform"`
	NATS     NATSConfig     `yaml:"nats"`
	Engine   EngineConfig   `yaml:"engine"`
	Sink     SinkConfig     `yaml:"sink"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// PlatformConfig identifies this node in logs and NATS connections.
type PlatformConfig struct {
	Name        string `yaml:"name"`
	Instance    string `yaml:"instance"`
	Environment string `yaml:"environment"`
}

// NATSConfig holds the connection settings for the NATS transport.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	DrainTimeout   time.Duration `yaml:"drain_timeout"`
	Token          string        `yaml:"token,omitempty"`
	CredsFile      string        `yaml:"creds_file,omitempty"`
}

// EngineConfig sizes the per-stage worker pools.
type EngineConfig struct {
	WorkersPerStage int           `yaml:"workers_per_stage"`
	QueueSize       int           `yaml:"queue_size"`
	DrainTimeout    time.Duration `yaml:"drain_timeout"`
}

// SinkConfig tunes the caller-side receive surface.
type SinkConfig struct {
	DefaultWait time.Duration `yaml:"default_wait"`
	QueueSize   int           `yaml:"queue_size"`
}

// LogConfig controls the process-wide slog setup.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Default returns a configuration suitable for local development.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Platform: PlatformConfig{
			Name:        "flowpipe",
			Environment: "development",
		},
		NATS: NATSConfig{
			URL:            "nats://localhost:4222",
			MaxReconnects:  10,
			ReconnectWait:  2 * time.Second,
			ConnectTimeout: 5 * time.Second,
			DrainTimeout:   10 * time.Second,
		},
		Engine: EngineConfig{
			WorkersPerStage: 4,
			QueueSize:       256,
			DrainTimeout:    30 * time.Second,
		},
		Sink: SinkConfig{
			DefaultWait: 5 * time.Second,
			QueueSize:   1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Validate checks cross-field consistency. Zero values that have sane
// defaults are filled rather than rejected.
func (c *Config) Validate() error {
	if c.Platform.Name == "" {
		return invalid("platform.name must be set")
	}

	if c.NATS.URL == "" {
		return invalid("nats.url must be set")
	}
	if c.NATS.Token != "" && c.NATS.CredsFile != "" {
		return invalid("nats.token and nats.creds_file are mutually exclusive")
	}

	if c.Engine.WorkersPerStage < 0 {
		return invalid("engine.workers_per_stage cannot be negative")
	}
	if c.Engine.QueueSize < 0 {
		return invalid("engine.queue_size cannot be negative")
	}

	if c.Sink.DefaultWait < 0 {
		return invalid("sink.default_wait cannot be negative")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid(fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return invalid(fmt.Sprintf("log.format %q is not one of text, json", c.Log.Format))
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return invalid(fmt.Sprintf("metrics.port %d is out of range", c.Metrics.Port))
		}
	}

	return nil
}

func invalid(msg string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, msg),
		"config", "Validate", "configuration check")
}
