package service

import (
	"time"

	repository "github.com/okian/telematics/internal/adapters/repository"
	"github.com/okian/telematics/internal/domain/feedback"
	"github.com/okian/telematics/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTickInterval sets the period between simulated events.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithSimulationDuration sets the length of a simulation run.
func WithSimulationDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.simDuration = d
		}
	}
}

// WithHistoryLimit caps retained feedback entries per session.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithInitialScore sets the starting driving score of new sessions.
func WithInitialScore(score int) Option {
	return func(s *Service) {
		s.initialScore = score
	}
}

// WithLoadDelay sets the simulated dashboard load delay. Zero serves the
// dashboard immediately.
func WithLoadDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.loadDelay = d
		}
	}
}

// WithQueueSize sets the notification queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStreamBuffer sets the per-subscriber live feed buffer.
func WithStreamBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.streamBuffer = n
		}
	}
}

// WithMaxSessions caps concurrently open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionIdleTTL sets how long an untouched session survives.
func WithSessionIdleTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithReapSpec sets the cron spec of the idle-session reaper.
func WithReapSpec(spec string) Option {
	return func(s *Service) {
		if spec != "" {
			s.reapSpec = spec
		}
	}
}

// WithRandomSeed makes event selection reproducible. Zero seeds from time.
func WithRandomSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithDefaultPolicyholder sets the policyholder used when a request names none.
func WithDefaultPolicyholder(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.defaultPolicyholder = id
		}
	}
}

// WithScheduler replaces the wall-clock scheduler, mostly for tests.
func WithScheduler(sched feedback.Scheduler) Option {
	return func(s *Service) {
		if sched != nil {
			s.sched = sched
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDashboardSource replaces the static dashboard dataset.
func WithDashboardSource(src repository.DashboardSource) Option {
	return func(s *Service) {
		if src != nil {
			s.dashboards = src
		}
	}
}
