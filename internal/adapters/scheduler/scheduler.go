// Package scheduler provides cancellable recurring and one-shot tasks for the
// feedback simulator: a wall-clock implementation and a virtual clock for tests.
package scheduler

import (
	"sync"
	"time"

	"github.com/okian/telematics/internal/domain/feedback"
	"github.com/okian/telematics/pkg/metrics"
)

// Task is a cancellable scheduled callback.
type Task = feedback.Task

// Timer schedules callbacks on the wall clock. Every recurring task runs on
// its own goroutine; one-shot tasks use time.AfterFunc.
type Timer struct {
	mu      sync.Mutex
	tasks   map[*timerTask]struct{}
	stopped bool
}

// NewTimer creates a wall-clock scheduler.
func NewTimer() *Timer {
	return &Timer{tasks: make(map[*timerTask]struct{})}
}

type timerTask struct {
	owner *Timer
	once  sync.Once
	done  chan struct{}
	stop  func() bool
}

func (t *timerTask) Cancel() {
	t.once.Do(func() {
		close(t.done)
		if t.stop != nil {
			t.stop()
		}
		t.owner.forget(t)
	})
}

// Every runs fn every d until the task is cancelled.
func (t *Timer) Every(d time.Duration, fn func()) Task {
	tk := &timerTask{owner: t, done: make(chan struct{})}
	if !t.track(tk) {
		return tk
	}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-tk.done:
				return
			case <-ticker.C:
				select {
				case <-tk.done:
					return
				default:
				}
				metrics.RecordSchedulerFire("every")
				fn()
			}
		}
	}()
	return tk
}

// After runs fn once after d unless cancelled first.
func (t *Timer) After(d time.Duration, fn func()) Task {
	tk := &timerTask{owner: t, done: make(chan struct{})}
	if !t.track(tk) {
		return tk
	}
	tm := time.AfterFunc(d, func() {
		select {
		case <-tk.done:
			return
		default:
		}
		metrics.RecordSchedulerFire("after")
		fn()
		t.forget(tk)
	})
	tk.stop = tm.Stop
	return tk
}

// Pending returns the number of live tasks.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}

// Stop cancels every outstanding task; later schedules are inert.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	live := make([]*timerTask, 0, len(t.tasks))
	for tk := range t.tasks {
		live = append(live, tk)
	}
	t.mu.Unlock()

	for _, tk := range live {
		tk.Cancel()
	}
}

func (t *Timer) track(tk *timerTask) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		tk.once.Do(func() { close(tk.done) })
		return false
	}
	t.tasks[tk] = struct{}{}
	metrics.UpdateSchedulerPending(len(t.tasks))
	return true
}

func (t *Timer) forget(tk *timerTask) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tasks, tk)
	metrics.UpdateSchedulerPending(len(t.tasks))
}
