// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Durations are configured in milliseconds and exposed through accessors.
// - Load wraps failures with ErrLoadConfig or ErrInvalidConfig.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DefaultPolicyholderID is shown when the UI does not name one.
	DefaultPolicyholderID string `koanf:"default_policyholder_id"`

	// TickIntervalMS is the period between simulated driving events.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// SimulationDurationMS bounds a single simulation run.
	SimulationDurationMS int `koanf:"simulation_duration_ms"`

	// HistoryLimit caps the number of retained feedback entries.
	HistoryLimit int `koanf:"history_limit"`

	// InitialScore is the driving score of a fresh session.
	InitialScore int `koanf:"initial_score"`

	// LoadDelayMS is the simulated dashboard load delay.
	LoadDelayMS int `koanf:"load_delay_ms"`

	// QueueSize bounds the in-memory notification queue.
	QueueSize int `koanf:"queue_size"`

	// StreamBuffer is the per-subscriber live feed buffer.
	StreamBuffer int `koanf:"stream_buffer"`

	// MaxSessions caps concurrently open feedback sessions.
	MaxSessions int `koanf:"max_sessions"`

	// SessionIdleTTLMS disposes sessions untouched for longer than this.
	SessionIdleTTLMS int `koanf:"session_idle_ttl_ms"`

	// SessionReapSpec is the cron spec of the idle-session reaper.
	SessionReapSpec string `koanf:"session_reap_spec"`

	// RandomSeed fixes event selection when non-zero.
	RandomSeed int64 `koanf:"random_seed"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DefaultPolicyholderID: "PH-demo123",
		TickIntervalMS:        3000,
		SimulationDurationMS:  30000,
		HistoryLimit:          10,
		InitialScore:          75,
		LoadDelayMS:           1000,
		QueueSize:             1024,
		StreamBuffer:          16,
		MaxSessions:           1000,
		SessionIdleTTLMS:      600000,
		SessionReapSpec:       "@every 1m",
	}
}

// TickInterval returns the tick period.
func (c *Config) TickInterval() time.Duration { return ms(c.TickIntervalMS) }

// SimulationDuration returns the run length.
func (c *Config) SimulationDuration() time.Duration { return ms(c.SimulationDurationMS) }

// LoadDelay returns the simulated dashboard load delay.
func (c *Config) LoadDelay() time.Duration { return ms(c.LoadDelayMS) }

// SessionIdleTTL returns the idle cutoff for sessions.
func (c *Config) SessionIdleTTL() time.Duration { return ms(c.SessionIdleTTLMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
