package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/telematics/internal/adapters/scheduler"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManual(t *testing.T) {
	Convey("Given a manual scheduler", t, func() {
		start := time.Date(2025, 9, 11, 8, 30, 0, 0, time.UTC)
		m := scheduler.NewManual(start)

		Convey("When a recurring task is registered", func() {
			var fired []time.Time
			task := m.Every(3*time.Second, func() { fired = append(fired, m.Now()) })

			Convey("Then nothing fires before the first period", func() {
				So(m.Advance(2*time.Second), ShouldEqual, 0)
				So(fired, ShouldBeEmpty)
			})

			Convey("And advancing 30s fires it ten times at each period", func() {
				So(m.Advance(30*time.Second), ShouldEqual, 10)
				So(len(fired), ShouldEqual, 10)
				So(fired[0], ShouldEqual, start.Add(3*time.Second))
				So(fired[9], ShouldEqual, start.Add(30*time.Second))
				So(m.Now(), ShouldEqual, start.Add(30*time.Second))
			})

			Convey("And cancelling stops further firing", func() {
				m.Advance(6 * time.Second)
				task.Cancel()
				task.Cancel()
				So(m.Advance(time.Minute), ShouldEqual, 0)
				So(len(fired), ShouldEqual, 2)
				So(m.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When tasks come due at the same instant", func() {
			var order []string
			m.Every(3*time.Second, func() { order = append(order, "tick") })
			m.After(3*time.Second, func() { order = append(order, "stop") })

			m.Advance(3 * time.Second)

			Convey("Then they fire in registration order", func() {
				So(order, ShouldResemble, []string{"tick", "stop"})
			})
		})

		Convey("When a one-shot task cancels a recurring task", func() {
			ticks := 0
			var every scheduler.Task
			every = m.Every(time.Second, func() { ticks++ })
			m.After(5*time.Second, func() { every.Cancel() })

			m.Advance(time.Minute)

			Convey("Then the recurring task stops at the one-shot deadline", func() {
				So(ticks, ShouldEqual, 5)
				So(m.Pending(), ShouldEqual, 0)
			})
		})
	})
}

func TestTimer(t *testing.T) {
	Convey("Given a wall-clock timer", t, func() {
		tm := scheduler.NewTimer()
		defer tm.Stop()

		Convey("When a recurring task runs", func() {
			var n atomic.Int32
			task := tm.Every(5*time.Millisecond, func() { n.Add(1) })

			Convey("Then it fires repeatedly until cancelled", func() {
				So(waitFor(func() bool { return n.Load() >= 3 }), ShouldBeTrue)
				task.Cancel()
				So(tm.Pending(), ShouldEqual, 0)
				settled := n.Load()
				time.Sleep(30 * time.Millisecond)
				So(n.Load(), ShouldBeLessThanOrEqualTo, settled+1)
			})
		})

		Convey("When a one-shot task is cancelled before it is due", func() {
			var n atomic.Int32
			task := tm.After(20*time.Millisecond, func() { n.Add(1) })
			task.Cancel()
			time.Sleep(40 * time.Millisecond)

			Convey("Then it never fires", func() {
				So(n.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the timer is stopped", func() {
			var n atomic.Int32
			tm.Every(5*time.Millisecond, func() { n.Add(1) })
			tm.After(5*time.Millisecond, func() { n.Add(1) })
			tm.Stop()
			late := tm.After(time.Millisecond, func() { n.Add(1) })
			time.Sleep(30 * time.Millisecond)

			Convey("Then no task fires and late schedules are inert", func() {
				So(n.Load(), ShouldEqual, 0)
				So(tm.Pending(), ShouldEqual, 0)
				So(func() { late.Cancel() }, ShouldNotPanic)
			})
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
