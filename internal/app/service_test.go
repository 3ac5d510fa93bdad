package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/telematics/internal/adapters/repository"
	"github.com/okian/telematics/internal/adapters/scheduler"
	service "github.com/okian/telematics/internal/app"
	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newService(clock *scheduler.Manual, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithScheduler(clock),
		service.WithClock(clock.Now),
		service.WithRandomSeed(7),
	}
	return service.New(append(base, opts...)...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		clock := scheduler.NewManual(time.Date(2025, 9, 11, 14, 0, 0, 0, time.UTC))
		svc := newService(clock)
		ctx := context.Background()

		Convey("When it is not started", func() {
			_, err := svc.CreateSession(ctx, "")
			_, dashErr := svc.Dashboard(ctx, "")

			Convey("Then operations report ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(dashErr, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			sess, err := svc.CreateSession(ctx, "")
			So(err, ShouldBeNil)
			_, err = svc.StartSimulation(ctx, sess.ID)
			So(err, ShouldBeNil)

			svc.Stop()
			svc.Stop()

			Convey("Then every timer is cancelled and sessions are gone", func() {
				So(clock.Pending(), ShouldEqual, 0)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(clock.Advance(time.Minute), ShouldEqual, 0)
			})

			Convey("And it can be started again", func() {
				So(svc.Start(ctx), ShouldBeNil)
				defer svc.Stop()
				_, err := svc.Session(ctx, sess.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Dashboard(t *testing.T) {
	Convey("Given a started service with a one second load delay", t, func() {
		clock := scheduler.NewManual(time.Date(2025, 9, 11, 14, 0, 0, 0, time.UTC))
		svc := newService(clock, service.WithLoadDelay(time.Second))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When requested before the delay elapses", func() {
			resp, err := svc.Dashboard(ctx, "")

			Convey("Then it is still loading", func() {
				So(err, ShouldBeNil)
				So(resp.Loading, ShouldBeTrue)
				So(resp.Dashboard, ShouldBeNil)
			})
		})

		Convey("When requested after the delay", func() {
			clock.Advance(time.Second)
			resp, err := svc.Dashboard(ctx, "PH-demo123")

			Convey("Then the projected view is served", func() {
				So(err, ShouldBeNil)
				So(resp.Loading, ShouldBeFalse)
				So(resp.Dashboard.Header.FirstName, ShouldEqual, "Jane")
				So(len(resp.Dashboard.RiskTrend), ShouldEqual, 6)
				So(resp.Dashboard.RiskTrend[0].Date, ShouldEqual, "4/1/2025")
			})

			Convey("And the load timer fired only once", func() {
				So(clock.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When an unknown policyholder is requested", func() {
			_, err := svc.Dashboard(ctx, "PH-unknown")

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When tips are requested", func() {
			So(len(svc.Tips(ctx)), ShouldEqual, 3)
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service", t, func() {
		clock := scheduler.NewManual(time.Date(2025, 9, 11, 14, 0, 0, 0, time.UTC))
		svc := newService(clock, service.WithLoadDelay(0), service.WithMaxSessions(2))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		sess, err := svc.CreateSession(ctx, "")
		So(err, ShouldBeNil)

		Convey("Then a new session is idle at 75", func() {
			So(sess.ID, ShouldNotBeEmpty)
			So(sess.PolicyholderID, ShouldEqual, "PH-demo123")
			So(sess.Score, ShouldEqual, 75)
			So(sess.Simulating, ShouldBeFalse)
			So(sess.History, ShouldBeEmpty)
		})

		Convey("When a simulation is started twice", func() {
			first, _ := svc.StartSimulation(ctx, sess.ID)
			second, _ := svc.StartSimulation(ctx, sess.ID)
			clock.Advance(12 * time.Second)
			snap, _ := svc.Session(ctx, sess.ID)

			Convey("Then only one run ticks", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(len(snap.History), ShouldEqual, 4)
				So(snap.History[0].ID, ShouldEqual, "4")
				So(snap.Unread, ShouldEqual, 4)
				So(snap.Score, ShouldBeBetweenOrEqual, 0, 100)
			})

			Convey("And the run ends after thirty seconds with ten entries", func() {
				clock.Advance(30 * time.Second)
				snap, _ := svc.Session(ctx, sess.ID)
				So(snap.Simulating, ShouldBeFalse)
				So(len(snap.History), ShouldEqual, 10)
				So(snap.AlertLabel, ShouldEqual, "10 new alerts")
			})

			Convey("And marking an entry read twice is idempotent", func() {
				a, err := svc.MarkRead(ctx, sess.ID, "2")
				So(err, ShouldBeNil)
				b, _ := svc.MarkRead(ctx, sess.ID, "2")
				c, _ := svc.MarkRead(ctx, sess.ID, "does-not-exist")
				So(a.Unread, ShouldEqual, 3)
				So(b.Unread, ShouldEqual, 3)
				So(c.Unread, ShouldEqual, 3)
				So(b.History, ShouldResemble, a.History)
			})
		})

		Convey("When the session limit is reached", func() {
			_, err := svc.CreateSession(ctx, "")
			So(err, ShouldBeNil)
			_, err = svc.CreateSession(ctx, "")

			Convey("Then creation fails with ErrCapacity", func() {
				So(errors.Is(err, repository.ErrCapacity), ShouldBeTrue)
			})
		})

		Convey("When the session is closed mid-run", func() {
			_, _ = svc.StartSimulation(ctx, sess.ID)
			clock.Advance(3 * time.Second)
			So(svc.CloseSession(ctx, sess.ID), ShouldBeNil)

			Convey("Then its timers are cancelled and it is gone", func() {
				So(clock.Pending(), ShouldEqual, 0)
				_, err := svc.Session(ctx, sess.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(svc.CloseSession(ctx, sess.ID), repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When unknown sessions are addressed", func() {
			_, startErr := svc.StartSimulation(ctx, "nope")
			_, readErr := svc.MarkRead(ctx, "nope", "1")

			Convey("Then they are not found", func() {
				So(errors.Is(startErr, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(readErr, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_LiveFeed(t *testing.T) {
	Convey("Given a subscriber on a running session", t, func() {
		clock := scheduler.NewManual(time.Date(2025, 9, 11, 14, 0, 0, 0, time.UTC))
		svc := newService(clock, service.WithLoadDelay(0))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		sess, _ := svc.CreateSession(ctx, "")
		sub, err := svc.Subscribe(ctx, sess.ID)
		So(err, ShouldBeNil)
		defer sub.Close()

		_, _ = svc.StartSimulation(ctx, sess.ID)
		clock.Advance(9 * time.Second)

		Convey("When the ticks are dispatched", func() {
			var got []model.Notification
			timeout := time.After(2 * time.Second)
			for len(got) < 3 {
				select {
				case n := <-sub.C:
					got = append(got, n)
				case <-timeout:
					t.Fatalf("received %d of 3 notifications", len(got))
				}
			}

			Convey("Then they arrive in tick order with running scores", func() {
				So(got[0].Feedback.ID, ShouldEqual, "1")
				So(got[1].Feedback.ID, ShouldEqual, "2")
				So(got[2].Feedback.ID, ShouldEqual, "3")
				So(got[2].Unread, ShouldEqual, 3)
				snap, _ := svc.Session(ctx, sess.ID)
				So(got[2].Score, ShouldEqual, snap.Score)
			})
		})

		Convey("When the session is closed", func() {
			So(svc.CloseSession(ctx, sess.ID), ShouldBeNil)

			Convey("Then the subscription channel is closed", func() {
				closed := false
				timeout := time.After(2 * time.Second)
				for !closed {
					select {
					case _, ok := <-sub.C:
						closed = !ok
					case <-timeout:
						t.Fatal("subscription not closed")
					}
				}
				So(closed, ShouldBeTrue)
			})
		})

		Convey("When the run expires", func() {
			clock.Advance(21 * time.Second)

			Convey("Then the remaining ticks are followed by an idle notification", func() {
				var ticks []model.Notification
				var idle *model.Notification
				timeout := time.After(2 * time.Second)
				for idle == nil {
					select {
					case n := <-sub.C:
						if n.Kind == model.NotificationIdle {
							idle = &n
							continue
						}
						ticks = append(ticks, n)
					case <-timeout:
						t.Fatalf("no idle notification after %d ticks", len(ticks))
					}
				}
				So(len(ticks), ShouldEqual, 10)
				So(ticks[9].Kind, ShouldEqual, model.NotificationFeedback)
				So(idle.SessionID, ShouldEqual, sess.ID)
				So(idle.Simulating, ShouldBeFalse)
				So(idle.Unread, ShouldEqual, 10)
				snap, _ := svc.Session(ctx, sess.ID)
				So(snap.Simulating, ShouldBeFalse)
				So(idle.Score, ShouldEqual, snap.Score)
			})
		})

		Convey("When subscribing to an unknown session", func() {
			_, err := svc.Subscribe(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_ReapIdle(t *testing.T) {
	Convey("Given sessions with a one minute idle TTL", t, func() {
		clock := scheduler.NewManual(time.Date(2025, 9, 11, 14, 0, 0, 0, time.UTC))
		svc := newService(clock, service.WithLoadDelay(0), service.WithSessionIdleTTL(time.Minute))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		stale, _ := svc.CreateSession(ctx, "")
		fresh, _ := svc.CreateSession(ctx, "")
		clock.Advance(45 * time.Second)
		_, _ = svc.Session(ctx, fresh.ID)
		clock.Advance(30 * time.Second)

		Convey("When the reaper runs", func() {
			n := svc.ReapIdle(ctx)

			Convey("Then only the untouched session is disposed", func() {
				So(n, ShouldEqual, 1)
				_, err := svc.Session(ctx, stale.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = svc.Session(ctx, fresh.ID)
				So(err, ShouldBeNil)
				So(svc.GetStats()["sessions"], ShouldEqual, 1)
			})
		})
	})
}

func TestService_StartAfterClose(t *testing.T) {
	Convey("Given sessions closed while a start is in flight", t, func() {
		clock := scheduler.NewManual(time.Date(2025, 9, 11, 14, 0, 0, 0, time.UTC))
		svc := newService(clock, service.WithLoadDelay(0))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		const n = 200
		type result struct {
			started bool
			err     error
		}
		results := make([]result, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			sess, err := svc.CreateSession(ctx, "")
			So(err, ShouldBeNil)
			wg.Add(2)
			go func(i int, id string) {
				defer wg.Done()
				started, err := svc.StartSimulation(ctx, id)
				results[i] = result{started: started, err: err}
			}(i, sess.ID)
			go func(id string) {
				defer wg.Done()
				_ = svc.CloseSession(ctx, id)
			}(sess.ID)
		}
		wg.Wait()

		Convey("Then a start never reports success without starting", func() {
			for _, r := range results {
				if r.err != nil {
					So(errors.Is(r.err, repository.ErrNotFound), ShouldBeTrue)
					continue
				}
				So(r.started, ShouldBeTrue)
			}
		})
	})
}
