package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/telematics/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DefaultPolicyholderID, convey.ShouldEqual, "PH-demo123")
			convey.So(cfg.TickInterval(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.SimulationDuration(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.LoadDelay(), convey.ShouldEqual, time.Second)
			convey.So(cfg.SessionIdleTTL(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.HistoryLimit, convey.ShouldEqual, 10)
			convey.So(cfg.InitialScore, convey.ShouldEqual, 75)
			convey.So(cfg.SessionReapSpec, convey.ShouldEqual, "@every 1m")
		})

		convey.Convey("And the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break one rule each", t, func() {
		cases := map[string]func(*config.Config){
			"addr":          func(c *config.Config) { c.Addr = "" },
			"tick interval": func(c *config.Config) { c.TickIntervalMS = 0 },
			"duration":      func(c *config.Config) { c.SimulationDurationMS = -1 },
			"history":       func(c *config.Config) { c.HistoryLimit = 0 },
			"score low":     func(c *config.Config) { c.InitialScore = -1 },
			"score high":    func(c *config.Config) { c.InitialScore = 101 },
			"queue":         func(c *config.Config) { c.QueueSize = 0 },
			"sessions":      func(c *config.Config) { c.MaxSessions = 0 },
			"reap spec":     func(c *config.Config) { c.SessionReapSpec = "every minute" },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)

			convey.Convey("Then "+name+" is rejected as invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
