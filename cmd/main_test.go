package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	app "github.com/okian/telematics/internal/app"
	"github.com/okian/telematics/internal/config"
	"github.com/okian/telematics/internal/domain/types"
	"github.com/okian/telematics/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestNewService(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		_ = os.Setenv("TELEMATICS_MAX_SESSIONS", "3")
		_ = os.Setenv("TELEMATICS_LOAD_DELAY_MS", "0")
		_ = os.Setenv("TELEMATICS_RANDOM_SEED", "11")
		defer func() {
			_ = os.Unsetenv("TELEMATICS_MAX_SESSIONS")
			_ = os.Unsetenv("TELEMATICS_LOAD_DELAY_MS")
			_ = os.Unsetenv("TELEMATICS_RANDOM_SEED")
		}()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service is built and started from it", func() {
			svc := newService(cfg, logger.Get())
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the options are applied", func() {
				stats := svc.GetStats()
				convey.So(stats["maxSessions"], convey.ShouldEqual, 3)
				convey.So(stats["loaded"], convey.ShouldEqual, true)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the full mux over a started service", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithLoadDelay(0))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		srv := httptest.NewServer(newMux(ctx, svc))
		defer srv.Close()

		get := func(path string) *http.Response {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			return resp
		}

		convey.Convey("Then the page, the docs and the API are all served", func() {
			for _, path := range []string{"/", "/api-docs", "/openapi.yaml", "/healthz", "/stats", "/api/tips"} {
				resp := get(path)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then a session round trip works over HTTP", func() {
			resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

			var sess types.Session
			convey.So(json.NewDecoder(resp.Body).Decode(&sess), convey.ShouldBeNil)
			convey.So(sess.Score, convey.ShouldEqual, 75)

			again := get("/api/sessions/" + sess.ID)
			_ = again.Body.Close()
			convey.So(again.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a free local port", t, func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := l.Addr().String()
		_ = l.Close()

		cfg := config.New()
		cfg.Addr = addr
		cfg.LoadDelayMS = 0

		convey.Convey("When run is cancelled after serving", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Get()) }()

			var status int
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				resp, err := http.Get("http://" + addr + "/stats")
				if err == nil {
					status = resp.StatusCode
					_ = resp.Body.Close()
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			cancel()

			convey.Convey("Then it served requests and shut down cleanly", func() {
				convey.So(status, convey.ShouldEqual, http.StatusOK)
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the address is unusable", func() {
			cfg.Addr = "256.0.0.1:bad"
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			err := run(ctx, cfg, logger.Get())

			convey.Convey("Then run reports the listen error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		svc := app.New()

		convey.Convey("Then they stop with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("And a single update does not require a started service", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
