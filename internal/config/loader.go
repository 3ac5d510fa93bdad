package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

const (
	envPrefix  = "TELEMATICS_"
	envFileVar = "TELEMATICS_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TELEMATICS_CONFIG is set
//  3. env (prefix TELEMATICS_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TELEMATICS_TICK_INTERVAL_MS -> tick_interval_ms. Keys stay flat so
	// underscores match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The file path itself is not a config key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.SimulationDurationMS <= 0:
		return fmt.Errorf("%w: simulation_duration_ms must be positive", ErrInvalidConfig)
	case c.LoadDelayMS < 0:
		return fmt.Errorf("%w: load_delay_ms must not be negative", ErrInvalidConfig)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("%w: history_limit must be positive", ErrInvalidConfig)
	case c.InitialScore < 0 || c.InitialScore > 100:
		return fmt.Errorf("%w: initial_score must be within [0,100]", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.StreamBuffer <= 0:
		return fmt.Errorf("%w: stream_buffer must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.SessionIdleTTLMS <= 0:
		return fmt.Errorf("%w: session_idle_ttl_ms must be positive", ErrInvalidConfig)
	}
	if _, err := cron.ParseStandard(c.SessionReapSpec); err != nil {
		return fmt.Errorf("%w: session_reap_spec %q: %w", ErrInvalidConfig, c.SessionReapSpec, err)
	}
	return nil
}
