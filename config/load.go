package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/flowpipe/errors"
)

// Load reads a YAML configuration file, layers environment overrides on
// top, and validates the result. A missing path loads defaults plus
// environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load",
				fmt.Sprintf("read %s", path))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load",
				fmt.Sprintf("parse %s", path))
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays FLOWPIPE_* environment variables. Environment wins
// over the file, which wins over defaults.
func applyEnv(cfg *Config) {
	setString(&cfg.Platform.Name, "FLOWPIPE_PLATFORM_NAME")
	setString(&cfg.Platform.Instance, "FLOWPIPE_PLATFORM_INSTANCE")
	setString(&cfg.Platform.Environment, "FLOWPIPE_ENVIRONMENT")

	setString(&cfg.NATS.URL, "FLOWPIPE_NATS_URL")
	setString(&cfg.NATS.Token, "FLOWPIPE_NATS_TOKEN")
	setString(&cfg.NATS.CredsFile, "FLOWPIPE_NATS_CREDS_FILE")
	setInt(&cfg.NATS.MaxReconnects, "FLOWPIPE_NATS_MAX_RECONNECTS")
	setDuration(&cfg.NATS.ReconnectWait, "FLOWPIPE_NATS_RECONNECT_WAIT")
	setDuration(&cfg.NATS.ConnectTimeout, "FLOWPIPE_NATS_CONNECT_TIMEOUT")

	setInt(&cfg.Engine.WorkersPerStage, "FLOWPIPE_ENGINE_WORKERS")
	setInt(&cfg.Engine.QueueSize, "FLOWPIPE_ENGINE_QUEUE_SIZE")
	setDuration(&cfg.Engine.DrainTimeout, "FLOWPIPE_ENGINE_DRAIN_TIMEOUT")

	setDuration(&cfg.Sink.DefaultWait, "FLOWPIPE_SINK_DEFAULT_WAIT")
	setInt(&cfg.Sink.QueueSize, "FLOWPIPE_SINK_QUEUE_SIZE")

	setString(&cfg.Log.Level, "FLOWPIPE_LOG_LEVEL")
	setString(&cfg.Log.Format, "FLOWPIPE_LOG_FORMAT")

	setBool(&cfg.Metrics.Enabled, "FLOWPIPE_METRICS_ENABLED")
	setInt(&cfg.Metrics.Port, "FLOWPIPE_METRICS_PORT")
	setString(&cfg.Metrics.Path, "FLOWPIPE_METRICS_PATH")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
