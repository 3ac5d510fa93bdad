package feedback

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/scoring"
)

// Simulation timing defaults.
const (
	DefaultTickInterval = 3 * time.Second
	DefaultDuration     = 30 * time.Second
)

// Task is a scheduled callback that can be cancelled. Cancel is idempotent.
type Task interface {
	Cancel()
}

// Scheduler runs callbacks on a recurring or one-shot basis.
type Scheduler interface {
	Every(d time.Duration, fn func()) Task
	After(d time.Duration, fn func()) Task
}

// RandSource picks template indices. *rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// Notifier receives every tick result after the simulator lock is released.
type Notifier func(fb model.Feedback, st State)

// Simulator owns one feedback State and the two timers that drive it.
// All transitions are serialized behind mu.
type Simulator struct {
	mu sync.Mutex

	state   State
	seq     int64
	gen     uint64
	ticker  Task
	stopper Task
	closed  bool
	fired   int // timer ticks applied in the current run
	due     int // timer ticks a full run owes

	sched    Scheduler
	rnd      RandSource
	now      func() time.Time
	catalog  []model.Template
	interval time.Duration
	duration time.Duration
	limit    int
	initial  int
	notify   Notifier
	onIdle   func(State)
}

// NewSimulator creates an idle simulator driven by sched.
func NewSimulator(sched Scheduler, opts ...Option) *Simulator {
	s := &Simulator{
		sched:    sched,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // template choice is cosmetic
		now:      time.Now,
		catalog:  Catalog(),
		interval: DefaultTickInterval,
		duration: DefaultDuration,
		limit:    DefaultHistoryLimit,
		initial:  scoring.InitialScore,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = NewState(s.initial, s.limit)
	return s
}

// Start begins a simulation run: a tick every interval and a one-shot stop
// after duration. It returns false, scheduling nothing, when a run is
// already active or the simulator is closed.
func (s *Simulator) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	next, ok := s.state.Start()
	if !ok {
		return false
	}
	s.state = next
	s.gen++
	gen := s.gen
	s.fired = 0
	s.due = 0
	if s.interval > 0 {
		s.due = int(s.duration / s.interval)
	}

	s.ticker = s.sched.Every(s.interval, func() { s.tick(gen) })
	s.stopper = s.sched.After(s.duration, func() { s.expire(gen) })
	return true
}

// Tick applies one randomly selected template immediately, independent of
// the timers, and returns the stamped entry.
func (s *Simulator) Tick() (model.Feedback, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.Feedback{}, false
	}
	fb, st := s.applyLocked()
	s.mu.Unlock()

	s.publish(fb, st)
	return fb, true
}

// MarkRead flags a history entry as read. Unknown ids are a silent no-op;
// found reports whether the id matched.
func (s *Simulator) MarkRead(id string) (st State, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state, found = s.state.MarkRead(id)
	return s.state.Clone(), found
}

// Snapshot returns a copy of the current state.
func (s *Simulator) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Closed reports whether Close has been called.
func (s *Simulator) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels both timers and discards any later callbacks.
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	wasRunning := s.state.Simulating
	s.cancelLocked()
	s.state = s.state.Stop()
	st := s.state.Clone()
	s.mu.Unlock()

	if wasRunning {
		s.idle(st)
	}
}

func (s *Simulator) tick(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || !s.state.Simulating || s.fired >= s.due {
		s.mu.Unlock()
		return
	}
	s.fired++
	fb, st := s.applyLocked()
	s.mu.Unlock()

	s.publish(fb, st)
}

// expire ends the run, first applying any ticks the run still owes. On a
// wall clock the last tick can lose the race with the stop timer.
func (s *Simulator) expire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || !s.state.Simulating {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()

	type applied struct {
		fb model.Feedback
		st State
	}
	var owed []applied
	for s.fired < s.due {
		s.fired++
		fb, st := s.applyLocked()
		owed = append(owed, applied{fb: fb, st: st})
	}
	s.state = s.state.Stop()
	idle := s.state.Clone()
	s.mu.Unlock()

	for _, a := range owed {
		s.publish(a.fb, a.st)
	}
	s.idle(idle)
}

func (s *Simulator) applyLocked() (model.Feedback, State) {
	tpl := s.catalog[s.rnd.Intn(len(s.catalog))]
	s.seq++
	fb := tpl.Stamp(strconv.FormatInt(s.seq, 10), s.now())
	s.state = s.state.Apply(fb)
	return fb, s.state.Clone()
}

func (s *Simulator) cancelLocked() {
	if s.ticker != nil {
		s.ticker.Cancel()
		s.ticker = nil
	}
	if s.stopper != nil {
		s.stopper.Cancel()
		s.stopper = nil
	}
}

func (s *Simulator) idle(st State) {
	if s.onIdle != nil {
		s.onIdle(st)
	}
}

func (s *Simulator) publish(fb model.Feedback, st State) {
	if s.notify != nil {
		s.notify(fb, st)
	}
}
