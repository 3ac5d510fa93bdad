package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/telematics/internal/adapters/http/api"
	service "github.com/okian/telematics/internal/app"
	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/types"
	"github.com/okian/telematics/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func entry(id string, read bool) types.FeedbackEntry {
	return types.FeedbackEntry{Feedback: model.Feedback{ID: id, Read: read}}
}

func TestVerifySnapshot(t *testing.T) {
	Convey("Given session snapshots", t, func() {
		Convey("When history is newest-first and counts agree", func() {
			s := &types.Session{Score: 70, Unread: 1, History: []types.FeedbackEntry{entry("3", false), entry("2", true), entry("1", true)}}
			So(verifySnapshot(s, 10), ShouldBeNil)
		})

		Convey("When history is out of order", func() {
			s := &types.Session{Score: 70, History: []types.FeedbackEntry{entry("1", true), entry("2", true)}}
			So(verifySnapshot(s, 10), ShouldNotBeNil)
		})

		Convey("When history exceeds the limit", func() {
			s := &types.Session{Score: 70, History: []types.FeedbackEntry{entry("3", true), entry("2", true), entry("1", true)}}
			So(verifySnapshot(s, 2), ShouldNotBeNil)
		})

		Convey("When the score is off the scale", func() {
			So(verifySnapshot(&types.Session{Score: 101}, 10), ShouldNotBeNil)
			So(verifySnapshot(&types.Session{Score: -1}, 10), ShouldNotBeNil)
		})

		Convey("When the unread count disagrees with the entries", func() {
			s := &types.Session{Score: 70, Unread: 2, History: []types.FeedbackEntry{entry("1", false)}}
			So(verifySnapshot(s, 10), ShouldNotBeNil)
		})

		Convey("When an id is not numeric", func() {
			s := &types.Session{Score: 70, Unread: 1, History: []types.FeedbackEntry{entry("x", false)}}
			So(verifySnapshot(s, 10), ShouldNotBeNil)
		})
	})
}

func TestSameEntries(t *testing.T) {
	Convey("Given two snapshots", t, func() {
		a := &types.Session{Score: 70, Unread: 0, History: []types.FeedbackEntry{entry("1", true)}}
		b := &types.Session{Score: 70, Unread: 0, History: []types.FeedbackEntry{entry("1", true)}}
		So(sameEntries(a, b), ShouldBeTrue)

		b.History[0].Read = false
		So(sameEntries(a, b), ShouldBeFalse)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a service with a fast simulation behind a real HTTP server", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithTickInterval(10*time.Millisecond),
			service.WithSimulationDuration(150*time.Millisecond),
			service.WithLoadDelay(0),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		out := filepath.Join(t.TempDir(), "reports", "probe.json")

		Convey("When the probe drives two sessions concurrently", func() {
			report, err := Run(ctx, &Config{
				RunID:        "run-1",
				BaseURL:      srv.URL,
				Sessions:     2,
				Workers:      2,
				PollInterval: 5 * time.Millisecond,
				RunTimeout:   5 * time.Second,
				OutputFile:   out,
			})

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				So(report.Passed, ShouldBeTrue)
				So(report.Failed, ShouldEqual, 0)
				So(len(report.Sessions), ShouldEqual, 2)
				for _, s := range report.Sessions {
					So(s.Error, ShouldBeEmpty)
					So(s.Entries, ShouldBeBetweenOrEqual, 1, DefaultHistoryLimit)
					So(s.FinalScore, ShouldBeBetweenOrEqual, 0, 100)
					So(s.Polls, ShouldBeGreaterThan, 0)
				}
			})

			Convey("And the report is written as JSON", func() {
				data, readErr := os.ReadFile(out)
				So(readErr, ShouldBeNil)
				var saved Report
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved.RunID, ShouldEqual, "run-1")
				So(saved.Passed, ShouldBeTrue)
			})

			Convey("And the sessions were removed", func() {
				So(svc.GetStats()["sessions"], ShouldEqual, 0)
			})
		})
	})

	Convey("Given no service at the base URL", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		Convey("Then the probe reports the service unhealthy", func() {
			_, err := Run(context.Background(), &Config{BaseURL: url, Timeout: time.Second})
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})

	Convey("Given a service whose runs never end", t, func() {
		stuck := types.Session{ID: "s-1", Score: 75, Simulating: true, History: []types.FeedbackEntry{}}
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {})
		mux.HandleFunc("POST /api/sessions", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(types.Session{ID: "s-1", Score: 75, History: []types.FeedbackEntry{}})
		})
		var started atomic.Bool
		mux.HandleFunc("POST /api/sessions/s-1/simulation", func(w http.ResponseWriter, _ *http.Request) {
			status := http.StatusOK
			first := started.CompareAndSwap(false, true)
			if first {
				status = http.StatusAccepted
			}
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(types.StartResponse{Started: first})
		})
		mux.HandleFunc("GET /api/sessions/s-1", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(stuck)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("Then the session fails with a run timeout", func() {
			report, err := Run(context.Background(), &Config{
				BaseURL:      srv.URL,
				PollInterval: 5 * time.Millisecond,
				RunTimeout:   50 * time.Millisecond,
			})
			So(errors.Is(err, ErrChecksFailed), ShouldBeTrue)
			So(report.Passed, ShouldBeFalse)
			So(report.Sessions[0].Error, ShouldContainSubstring, ErrRunTimeout.Error())
		})
	})
}
