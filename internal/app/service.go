// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	eventqueue "github.com/okian/telematics/internal/adapters/mq/queue"
	"github.com/okian/telematics/internal/adapters/mq/worker"
	repository "github.com/okian/telematics/internal/adapters/repository"
	"github.com/okian/telematics/internal/adapters/scheduler"
	"github.com/okian/telematics/internal/adapters/stream"
	"github.com/okian/telematics/internal/domain/dashboard"
	"github.com/okian/telematics/internal/domain/feedback"
	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/scoring"
	"github.com/okian/telematics/internal/domain/types"
	"github.com/okian/telematics/pkg/logger"
	"github.com/okian/telematics/pkg/metrics"
)

const (
	drainTimeout = 5 * time.Second
	cronTimeout  = 5 * time.Second
)

// Service implements the API dependencies for the telematics dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions   repository.SessionStore
	dashboards repository.DashboardSource
	queue      eventqueue.Queue
	dispatcher *worker.InMemoryWorker
	hub        *stream.Hub
	sched      feedback.Scheduler
	ownTimer   *scheduler.Timer
	reaper     *cron.Cron
	loadTask   feedback.Task
	loaded     atomic.Bool
	cancel     context.CancelFunc

	// Configuration
	tickInterval        time.Duration
	simDuration         time.Duration
	historyLimit        int
	initialScore        int
	loadDelay           time.Duration
	queueSize           int
	streamBuffer        int
	maxSessions         int
	idleTTL             time.Duration
	reapSpec            string
	seed                int64
	defaultPolicyholder string
	now                 func() time.Time

	seedMu  sync.Mutex
	seedRnd *rand.Rand

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tickInterval:        feedback.DefaultTickInterval,
		simDuration:         feedback.DefaultDuration,
		historyLimit:        feedback.DefaultHistoryLimit,
		initialScore:        scoring.InitialScore,
		loadDelay:           time.Second,
		queueSize:           1024,
		streamBuffer:        16,
		maxSessions:         1000,
		idleTTL:             10 * time.Minute,
		reapSpec:            "@every 1m",
		defaultPolicyholder: repository.DemoPolicyholderID,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dashboards == nil {
		s.dashboards = repository.NewStaticDashboards()
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting telematics service...")

	if s.sched == nil || s.ownTimer != nil {
		s.ownTimer = scheduler.NewTimer()
		s.sched = s.ownTimer
	}
	if s.seed != 0 {
		s.seedRnd = rand.New(rand.NewSource(s.seed)) //nolint:gosec // reproducible demo data
	}

	s.sessions = repository.NewMemoryStore(
		repository.WithMaxSessions(s.maxSessions),
		repository.WithClock(s.now),
	)
	s.hub = stream.NewHub(stream.WithBuffer(s.streamBuffer))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))

	// The dispatcher outlives the caller's context; Stop ends it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.dispatcher = worker.NewInMemoryWorker(s.queue, s.hub, worker.WithLogger(s.logger.Named("dispatcher")))
	go s.dispatcher.Run(runCtx)

	s.reaper = cron.New(
		cron.WithLogger(cronLogger{l: s.logger.Named("reaper")}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{l: s.logger.Named("reaper")})),
	)
	if _, err := s.reaper.AddFunc(s.reapSpec, func() { s.ReapIdle(runCtx) }); err != nil {
		cancel()
		_ = s.queue.Close()
		return fmt.Errorf("schedule session reaper %q: %w", s.reapSpec, err)
	}
	s.reaper.Start()

	s.loaded.Store(false)
	if s.loadDelay <= 0 {
		s.loaded.Store(true)
	} else {
		s.loadTask = s.sched.After(s.loadDelay, func() { s.loaded.Store(true) })
	}

	s.started = true
	s.logger.Info(ctx, "telematics service started",
		logger.Duration("tick_interval", s.tickInterval),
		logger.Duration("simulation_duration", s.simDuration),
		logger.Int("history_limit", s.historyLimit),
		logger.Int("queue_size", s.queueSize),
		logger.Int("max_sessions", s.maxSessions),
		logger.String("reap_spec", s.reapSpec),
	)
	return nil
}

// Stop gracefully shuts down the service. Every session is closed, so no
// simulator timer survives.
func (s *Service) Stop() {
	ctx := context.Background()

	// A running reap job holds the read lock, so cron is stopped first.
	s.mu.RLock()
	started, reaper := s.started, s.reaper
	s.mu.RUnlock()
	if !started {
		return
	}
	s.logger.Info(ctx, "stopping telematics service...")
	select {
	case <-reaper.Stop().Done():
	case <-time.After(cronTimeout):
		s.logger.Warn(ctx, "session reaper did not stop in time")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	if s.loadTask != nil {
		s.loadTask.Cancel()
		s.loadTask = nil
	}

	closed := s.sessions.Drain(ctx)
	for _, sess := range closed {
		s.dispose(sess)
	}

	// Closing the queue lets the dispatcher drain what is left.
	_ = s.queue.Close()
	select {
	case <-s.dispatcher.Done():
	case <-time.After(drainTimeout):
		shutdownCtx, cancel := context.WithTimeout(ctx, drainTimeout)
		_ = s.dispatcher.Shutdown(shutdownCtx)
		cancel()
	}
	_ = s.hub.Close()
	s.cancel()

	if s.ownTimer != nil {
		s.ownTimer.Stop()
	}

	s.started = false
	s.logger.Info(ctx, "telematics service stopped", logger.Int("sessions_closed", len(closed)))
}

// Dashboard returns the dashboard view of a policyholder, or a loading
// marker until the simulated load delay has elapsed.
func (s *Service) Dashboard(ctx context.Context, policyholderID string) (types.DashboardResponse, error) {
	if err := s.ensureStarted(); err != nil {
		return types.DashboardResponse{}, err
	}
	if policyholderID == "" {
		policyholderID = s.defaultPolicyholder
	}
	data, err := s.dashboards.Dashboard(ctx, policyholderID)
	if err != nil {
		return types.DashboardResponse{}, err
	}
	if !s.loaded.Load() {
		metrics.RecordDashboardRequest("loading")
		return types.DashboardResponse{Loading: true}, nil
	}
	metrics.RecordDashboardRequest("ready")
	view := dashboard.Project(data)
	return types.DashboardResponse{Dashboard: &view}, nil
}

// Tips returns the static driving tips.
func (s *Service) Tips(context.Context) []model.Tip {
	return feedback.Tips()
}

// CreateSession opens a feedback session in the Idle state.
func (s *Service) CreateSession(ctx context.Context, policyholderID string) (types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Session{}, ErrNotStarted
	}
	if policyholderID == "" {
		policyholderID = s.defaultPolicyholder
	}

	id := uuid.NewString()
	opts := []feedback.Option{
		feedback.WithTickInterval(s.tickInterval),
		feedback.WithDuration(s.simDuration),
		feedback.WithHistoryLimit(s.historyLimit),
		feedback.WithInitialScore(s.initialScore),
		feedback.WithClock(s.now),
		feedback.WithNotifier(s.notifier(id)),
		feedback.WithIdleHook(s.idleHook(id)),
	}
	if r := s.sessionRand(); r != nil {
		opts = append(opts, feedback.WithRand(r))
	}
	sim := feedback.NewSimulator(s.sched, opts...)

	sess := repository.NewSession(id, policyholderID, sim, s.now())
	if err := s.sessions.Create(ctx, sess); err != nil {
		sim.Close()
		return types.Session{}, err
	}
	metrics.RecordSessionCreated()
	s.logger.Debug(ctx, "session created",
		logger.String("session_id", id),
		logger.String("policyholder_id", policyholderID),
	)
	return snapshot(sess, sim.Snapshot()), nil
}

// Session returns the current snapshot of a session.
func (s *Service) Session(ctx context.Context, id string) (types.Session, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.Session{}, err
	}
	return snapshot(sess, sess.Simulator.Snapshot()), nil
}

// StartSimulation begins a run. started is false when a run is already
// active; no timers are added in that case.
func (s *Service) StartSimulation(ctx context.Context, id string) (bool, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return false, err
	}
	started := sess.Simulator.Start()
	if !started && sess.Simulator.Closed() {
		// Reaped or deleted after the lookup.
		return false, fmt.Errorf("session %s: %w", id, repository.ErrNotFound)
	}
	if started {
		metrics.RecordSimulationStarted()
		s.logger.Debug(ctx, "simulation started", logger.String("session_id", id))
	} else {
		metrics.RecordSimulationIgnored()
	}
	return started, nil
}

// MarkRead flags one feedback entry as read. Unknown entry ids leave the
// session unchanged.
func (s *Service) MarkRead(ctx context.Context, id, feedbackID string) (types.Session, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.Session{}, err
	}
	st, hit := sess.Simulator.MarkRead(feedbackID)
	metrics.RecordMarkRead(hit)
	return snapshot(sess, st), nil
}

// CloseSession disposes a session and cancels its timers.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	sess, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.dispose(sess)
	s.logger.Debug(ctx, "session closed", logger.String("session_id", id))
	return nil
}

// Subscribe attaches a live feed reader to a session.
func (s *Service) Subscribe(ctx context.Context, id string) (*stream.Subscription, error) {
	if _, err := s.lookup(ctx, id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub.Subscribe(id)
}

// ReapIdle disposes sessions idle for longer than the configured TTL and
// returns how many were closed.
func (s *Service) ReapIdle(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return 0
	}
	idle := s.sessions.Idle(ctx, s.now().Add(-s.idleTTL))
	for _, sess := range idle {
		s.dispose(sess)
	}
	if len(idle) > 0 {
		metrics.RecordSessionsReaped(len(idle))
		s.logger.Info(ctx, "reaped idle sessions", logger.Int("count", len(idle)))
	}
	return len(idle)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"queueSize":   s.queueSize,
		"maxSessions": s.maxSessions,
		"loaded":      s.loaded.Load(),
	}

	if s.started {
		sessions := s.sessions.Count(ctx)
		stats["sessions"] = sessions
		stats["queueLength"] = s.queue.Len(ctx)
		stats["subscribers"] = s.hub.Subscribers()

		metrics.UpdateSessionsActive(sessions)
		metrics.UpdateStreamSubscribers(s.hub.Subscribers())
	}
	return stats
}

func (s *Service) ensureStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, id string) (*repository.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.sessions.Get(ctx, id)
}

// dispose cancels the session timers and ends its live feeds.
func (s *Service) dispose(sess *repository.Session) {
	sess.Simulator.Close()
	s.hub.CloseSession(sess.ID)
}

// notifier forwards tick results to the live feed queue. It runs on timer
// goroutines, outside the simulator lock.
func (s *Service) notifier(sessionID string) feedback.Notifier {
	q := s.queue
	l := s.logger
	return func(fb model.Feedback, st feedback.State) {
		metrics.RecordTick(string(fb.Type), st.Score)
		n := model.Notification{
			Kind:      model.NotificationFeedback,
			SessionID: sessionID,
			Feedback:  fb,
			Score:     st.Score,
			Unread:    st.UnreadCount(),
		}
		if err := q.Enqueue(context.Background(), n); err != nil {
			l.Debug(context.Background(), "live feed notification dropped",
				logger.String("session_id", sessionID),
				logger.String("feedback_id", fb.ID),
				logger.Error(err),
			)
		}
	}
}

// idleHook publishes the end of a run so live feeds can leave the
// simulating view.
func (s *Service) idleHook(sessionID string) func(feedback.State) {
	q := s.queue
	l := s.logger
	return func(st feedback.State) {
		metrics.RecordSimulationFinished()
		n := model.Notification{
			Kind:       model.NotificationIdle,
			SessionID:  sessionID,
			Score:      st.Score,
			Unread:     st.UnreadCount(),
			Simulating: st.Simulating,
		}
		if err := q.Enqueue(context.Background(), n); err != nil {
			l.Debug(context.Background(), "live feed idle notification dropped",
				logger.String("session_id", sessionID),
				logger.Error(err),
			)
		}
	}
}

func (s *Service) sessionRand() feedback.RandSource {
	if s.seedRnd == nil {
		return nil
	}
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return rand.New(rand.NewSource(s.seedRnd.Int63())) //nolint:gosec // reproducible demo data
}

func snapshot(sess *repository.Session, st feedback.State) types.Session {
	return types.NewSession(sess.ID, sess.PolicyholderID, sess.CreatedAt, st)
}
