package scheduler

import (
	"sync"
	"time"
)

// Manual is a virtual-clock scheduler. Nothing fires until Advance moves the
// clock; due tasks then fire in time order, ties in registration order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	owner     *Manual
	seq       uint64
	due       time.Time
	period    time.Duration // zero for one-shot
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.cancelled = true
}

// NewManual creates a virtual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every schedules fn at now+d, now+2d, ...
func (m *Manual) Every(d time.Duration, fn func()) Task {
	return m.add(d, d, fn)
}

// After schedules fn once at now+d.
func (m *Manual) After(d time.Duration, fn func()) Task {
	return m.add(d, 0, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{owner: m, seq: m.seq, due: m.now.Add(d), period: period, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d, firing every task that comes due on
// the way. Callbacks run without the scheduler lock held, so they may
// schedule or cancel tasks. It returns the number of callbacks fired.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	fired := 0
	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return fired
		}
		m.now = next.due
		if next.period > 0 {
			next.due = next.due.Add(next.period)
		} else {
			next.cancelled = true
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
		fired++
	}
}

// Pending returns the number of tasks that may still fire.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	return len(m.tasks)
}

func (m *Manual) nextDueLocked(target time.Time) *manualTask {
	m.pruneLocked()
	var best *manualTask
	for _, t := range m.tasks {
		if t.due.After(target) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) pruneLocked() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(m.tasks); i++ {
		m.tasks[i] = nil
	}
	m.tasks = live
}
