package feedback

import (
	"time"

	"github.com/okian/telematics/internal/domain/model"
)

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithTickInterval sets the period between injected events.
func WithTickInterval(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDuration sets how long a run lasts before returning to idle.
func WithDuration(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithHistoryLimit caps the retained history.
func WithHistoryLimit(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithInitialScore sets the score at creation. Values are clamped.
func WithInitialScore(score int) Option {
	return func(s *Simulator) {
		s.initial = score
	}
}

// WithRand injects the template selector.
func WithRand(r RandSource) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithClock injects the capture-time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCatalog replaces the template catalog. An empty catalog is ignored.
func WithCatalog(templates []model.Template) Option {
	return func(s *Simulator) {
		if len(templates) > 0 {
			s.catalog = append([]model.Template(nil), templates...)
		}
	}
}

// WithNotifier registers the tick callback.
func WithNotifier(n Notifier) Option {
	return func(s *Simulator) {
		s.notify = n
	}
}

// WithIdleHook sets a callback run, outside the lock, whenever an active run
// ends by expiry or Close. It receives the stopped state.
func WithIdleHook(fn func(State)) Option {
	return func(s *Simulator) {
		s.onIdle = fn
	}
}
