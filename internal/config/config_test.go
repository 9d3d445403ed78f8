package config_test

import (
	"runtime"
	"testing"

	"github.com/edupulse/edupulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "edupulse.db")
			convey.So(cfg.Timezone, convey.ShouldEqual, "UTC")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.FallbackDurationSeconds, convey.ShouldEqual, 600)
			convey.So(cfg.AtRiskThreshold, convey.ShouldEqual, 0.4)
			convey.So(cfg.AtRiskMinSamples, convey.ShouldEqual, 2)
			convey.So(cfg.AtRiskLimit, convey.ShouldEqual, 8)
			convey.So(cfg.WeakQuestionMinAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.WeakQuestionLimit, convey.ShouldEqual, 8)
			convey.So(cfg.DefaultPeriodDays, convey.ShouldEqual, 7)
			convey.So(cfg.MaxPeriodDays, convey.ShouldEqual, 90)
		})
	})
}
