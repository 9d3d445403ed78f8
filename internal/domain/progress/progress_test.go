package progress_test

import (
	"testing"
	"time"

	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/internal/domain/progress"
	"github.com/edupulse/edupulse/internal/domain/ratio"
	. "github.com/smartystreets/goconvey/convey"
)

func msAt(day, hour int) int64 {
	return time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC).UnixMilli()
}

func TestAggregatorAggregate(t *testing.T) {
	Convey("Given an aggregator in UTC", t, func() {
		agg := progress.New(
			progress.WithCalculator(ratio.New()),
			progress.WithLocation(time.UTC),
		)

		Convey("When folding events for two learners across two courses", func() {
			events := []model.ProgressEvent{
				{LearnerID: "l1", CourseID: "c1", ChapterID: "ch1", WatchedSeconds: 300, DurationSeconds: 600, OccurredAtMs: msAt(1, 9)},
				{LearnerID: "l1", CourseID: "c1", ChapterID: "ch2", WatchedSeconds: 600, DurationSeconds: 600, OccurredAtMs: msAt(1, 10)},
				{LearnerID: "l2", CourseID: "c1", ChapterID: "ch1", WatchedSeconds: 150, DurationSeconds: 600, OccurredAtMs: msAt(2, 9)},
				{LearnerID: "l2", CourseID: "c2", ChapterID: "ch3", WatchedSeconds: 0, DurationSeconds: 600, OccurredAtMs: msAt(2, 11)},
			}
			res := agg.Aggregate(events)

			Convey("Then per-learner sums count folded events", func() {
				So(res.ByLearner["l1"].SampleCount, ShouldEqual, 2)
				So(res.ByLearner["l1"].AvgRatio(), ShouldAlmostEqual, 0.75)
				So(res.ByLearner["l2"].SampleCount, ShouldEqual, 2)
				So(res.ByLearner["l2"].AvgRatio(), ShouldAlmostEqual, 0.125)
			})

			Convey("Then the course completion rate is the mean ratio of its events", func() {
				c1 := res.ByCourse["c1"]
				So(c1.SampleCount, ShouldEqual, 3)
				So(c1.CompletionRate(), ShouldAlmostEqual, (0.5+1.0+0.25)/3)
				So(c1.DistinctLearners, ShouldHaveLength, 2)

				c2 := res.ByCourse["c2"]
				So(c2.SampleCount, ShouldEqual, 1)
				So(c2.CompletionRate(), ShouldEqual, 0)
			})

			Convey("Then chapters track their own distinct learners", func() {
				So(res.ByChapter["ch1"].DistinctLearners, ShouldHaveLength, 2)
				So(res.ByChapter["ch2"].DistinctLearners, ShouldHaveLength, 1)
			})

			Convey("Then day buckets carry active-learner sets", func() {
				So(res.ByDay, ShouldHaveLength, 2)
				d1 := res.ByDay["2024-05-01"]
				So(d1.SampleCount, ShouldEqual, 2)
				So(d1.ActiveLearners, ShouldHaveLength, 1)
				d2 := res.ByDay["2024-05-02"]
				So(d2.SampleCount, ShouldEqual, 2)
				So(d2.ActiveLearners, ShouldHaveLength, 1)
			})

			Convey("Then the overall rate matches the mean of all ratios", func() {
				So(res.SampleCount, ShouldEqual, 4)
				So(res.CompletionRate(), ShouldAlmostEqual, (0.5+1.0+0.25+0.0)/4)
			})
		})

		Convey("When folding an empty slice", func() {
			res := agg.Aggregate(nil)

			Convey("Then every dimension is empty and rates are zero", func() {
				So(res.ByLearner, ShouldBeEmpty)
				So(res.ByCourse, ShouldBeEmpty)
				So(res.ByChapter, ShouldBeEmpty)
				So(res.ByDay, ShouldBeEmpty)
				So(res.CompletionRate(), ShouldEqual, 0)
			})
		})

		Convey("When an event has unknown duration", func() {
			res := agg.Aggregate([]model.ProgressEvent{
				{LearnerID: "l1", CourseID: "c1", ChapterID: "ch1", WatchedSeconds: 300, DurationSeconds: 0, OccurredAtMs: msAt(3, 8)},
			})

			Convey("Then the fallback ratio is folded rather than an error raised", func() {
				So(res.ByLearner["l1"].AvgRatio(), ShouldAlmostEqual, 0.5)
			})
		})
	})

	Convey("Given an aggregator in a non-UTC reference timezone", t, func() {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		So(err, ShouldBeNil)
		agg := progress.New(progress.WithLocation(tokyo))

		Convey("When an event occurs late in the UTC evening", func() {
			ev := model.ProgressEvent{
				LearnerID: "l1", CourseID: "c1", ChapterID: "ch1",
				WatchedSeconds: 60, DurationSeconds: 600,
				OccurredAtMs: time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC).UnixMilli(),
			}
			res := agg.Aggregate([]model.ProgressEvent{ev})

			Convey("Then the day bucket follows the configured timezone", func() {
				So(res.ByDay, ShouldContainKey, "2024-05-02")
			})
		})
	})
}
