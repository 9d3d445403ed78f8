package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/edupulse/edupulse/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRingDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(3))

		Convey("When an id is recorded for the first time", func() {
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)

			Convey("Then a repeat submission is reported as seen", func() {
				So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the bound is exceeded", func() {
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "b"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then the oldest id is evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse) // forgotten
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)  // still tracked
			})
		})

		Convey("When an id is unrecorded after a failed enqueue", func() {
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			d.Unrecord(ctx, "a")

			Convey("Then the id can be recorded again", func() {
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})

			Convey("And unrecording an unknown id is a no-op", func() {
				d.Unrecord(ctx, "nope")
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a deduper under concurrent use", t, func() {
		d := dedupe.New(dedupe.WithMaxSize(1000))
		done := make(chan struct{})

		for g := 0; g < 8; g++ {
			go func(g int) {
				defer func() { done <- struct{}{} }()
				for i := 0; i < 100; i++ {
					d.SeenAndRecord(ctx, fmt.Sprintf("g%d-%d", g, i))
				}
			}(g)
		}
		for g := 0; g < 8; g++ {
			<-done
		}

		Convey("Then every distinct id is tracked exactly once", func() {
			So(d.Size(), ShouldEqual, 800)
		})
	})
}
