package probe

import (
	"time"

	"github.com/okian/telematics/internal/adapters/repository"
)

// Defaults used when a Config field is left zero.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultRunTimeout   = 45 * time.Second
	DefaultHistoryLimit = 10
)

// Config holds configuration for a probe run.
type Config struct {
	RunID          string        // identifies the run in logs and the report
	BaseURL        string        // base URL of the service
	PolicyholderID string        // policyholder the sessions are opened for
	Sessions       int           // number of sessions to drive
	Workers        int           // number of sessions driven concurrently
	Timeout        time.Duration // per-request timeout
	PollInterval   time.Duration // delay between snapshot polls
	RunTimeout     time.Duration // upper bound on one simulation run
	HistoryLimit   int           // expected cap on history length
	OutputFile     string        // report path; empty skips writing
	Verbose        bool          // log every poll
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.PolicyholderID == "" {
		out.PolicyholderID = repository.DemoPolicyholderID
	}
	if out.Sessions <= 0 {
		out.Sessions = 1
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.Workers > out.Sessions {
		out.Workers = out.Sessions
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.RunTimeout <= 0 {
		out.RunTimeout = DefaultRunTimeout
	}
	if out.HistoryLimit <= 0 {
		out.HistoryLimit = DefaultHistoryLimit
	}
	return out
}

// Check is one verified property of a session run.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// SessionResult collects what happened to one driven session.
type SessionResult struct {
	SessionID  string  `json:"session_id"`
	FinalScore int     `json:"final_score"`
	Entries    int     `json:"entries"`
	Polls      int     `json:"polls"`
	Checks     []Check `json:"checks"`
	Error      string  `json:"error,omitempty"`
}

// Passed reports whether the session ran without error and every check held.
func (r *SessionResult) Passed() bool {
	if r.Error != "" {
		return false
	}
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

func (r *SessionResult) check(name string, ok bool, detail string) {
	c := Check{Name: name, Passed: ok}
	if !ok {
		c.Detail = detail
	}
	r.Checks = append(r.Checks, c)
}

// Report is the JSON document written at the end of a run.
type Report struct {
	RunID      string          `json:"run_id"`
	BaseURL    string          `json:"base_url"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Duration   string          `json:"duration"`
	Sessions   []SessionResult `json:"sessions"`
	Failed     int             `json:"failed"`
	Passed     bool            `json:"passed"`
}
