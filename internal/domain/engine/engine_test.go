package engine_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/edupulse/edupulse/internal/domain/engine"
	"github.com/edupulse/edupulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(i int) *int { return &i }

func dayMs(day, hour int) int64 {
	return time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC).UnixMilli()
}

// fixture builds the hand-computed reference scenario: 10 progress events
// across 2 learners over 3 days and 5 attempts across 2 quizzes with 3
// questions each.
func fixture() ([]model.ProgressEvent, []model.QuizAttempt, map[string][]model.QuestionDef) {
	events := []model.ProgressEvent{
		{LearnerID: "l1", CourseID: "c1", ChapterID: "ch1", WatchedSeconds: 600, DurationSeconds: 600, OccurredAtMs: dayMs(1, 9)},
		{LearnerID: "l1", CourseID: "c1", ChapterID: "ch2", WatchedSeconds: 300, DurationSeconds: 600, OccurredAtMs: dayMs(1, 10)},
		{LearnerID: "l1", CourseID: "c1", ChapterID: "ch3", WatchedSeconds: 450, DurationSeconds: 600, OccurredAtMs: dayMs(2, 9)},
		{LearnerID: "l1", CourseID: "c2", ChapterID: "ch4", WatchedSeconds: 300, DurationSeconds: 0, OccurredAtMs: dayMs(2, 10)},
		{LearnerID: "l1", CourseID: "c2", ChapterID: "ch5", WatchedSeconds: 900, DurationSeconds: 600, OccurredAtMs: dayMs(3, 9)},
		{LearnerID: "l2", CourseID: "c1", ChapterID: "ch1", WatchedSeconds: 60, DurationSeconds: 600, OccurredAtMs: dayMs(1, 11)},
		{LearnerID: "l2", CourseID: "c1", ChapterID: "ch2", WatchedSeconds: 120, DurationSeconds: 600, OccurredAtMs: dayMs(2, 11)},
		{LearnerID: "l2", CourseID: "c1", ChapterID: "ch3", WatchedSeconds: 0, DurationSeconds: 600, OccurredAtMs: dayMs(2, 12)},
		{LearnerID: "l2", CourseID: "c2", ChapterID: "ch4", WatchedSeconds: 180, DurationSeconds: 600, OccurredAtMs: dayMs(3, 11)},
		{LearnerID: "l2", CourseID: "c2", ChapterID: "ch5", WatchedSeconds: 240, DurationSeconds: 600, OccurredAtMs: dayMs(3, 12)},
	}

	questions := map[string][]model.QuestionDef{
		"quiz-1": {
			{QuestionID: "q1", Options: []string{"a", "b"}, CorrectOptions: []int{0}},
			{QuestionID: "q2", Options: []string{"a", "b"}, CorrectOptions: []int{1}},
			{QuestionID: "q3", Options: []string{"a", "b"}, CorrectOptions: []int{0}},
		},
		"quiz-2": {
			{QuestionID: "q4", Options: []string{"a", "b", "c"}, CorrectOptions: []int{2}},
			{QuestionID: "q5", Options: []string{"a", "b"}, CorrectOptions: []int{0}},
			{QuestionID: "q6", Options: []string{"a", "b"}, CorrectOptions: []int{1}},
		},
	}

	attempts := []model.QuizAttempt{
		{QuizID: "quiz-1", LearnerID: "l1", Answers: []*int{ptr(0), ptr(1), ptr(0)}, Score: 3, MaxScore: 3, CreatedAtMs: dayMs(1, 14)},
		{QuizID: "quiz-1", LearnerID: "l2", Answers: []*int{ptr(1), ptr(1), nil}, Score: 1, MaxScore: 3, CreatedAtMs: dayMs(1, 15)},
		{QuizID: "quiz-1", LearnerID: "l2", Answers: []*int{ptr(0), ptr(0), ptr(1)}, Score: 1, MaxScore: 3, CreatedAtMs: dayMs(2, 14)},
		{QuizID: "quiz-2", LearnerID: "l1", Answers: []*int{ptr(2), nil, nil}, Score: 1, MaxScore: 3, CreatedAtMs: dayMs(2, 15)},
		{QuizID: "quiz-2", LearnerID: "l2", Answers: []*int{ptr(0), ptr(0), ptr(1)}, Score: 2, MaxScore: 3, CreatedAtMs: dayMs(3, 14)},
	}

	return events, attempts, questions
}

func TestEngineCompute(t *testing.T) {
	Convey("Given the hand-computed reference scenario", t, func() {
		eng := engine.New(engine.WithLocation(time.UTC))
		events, attempts, questions := fixture()
		period := engine.Period{Days: 7, Reference: time.Date(2024, 5, 3, 23, 0, 0, 0, time.UTC)}

		snap := eng.Compute(events, attempts, questions, period)

		Convey("Then the overall KPIs match the reference numbers", func() {
			So(snap.Overall.ProgressEvents, ShouldEqual, 10)
			So(snap.Overall.Learners, ShouldEqual, 2)
			So(snap.Overall.CompletionRatePct, ShouldAlmostEqual, 47.5)
			So(snap.Overall.QuizAttempts, ShouldEqual, 5)
			So(snap.Overall.QuizAvgScorePct, ShouldAlmostEqual, (100+100.0/3*3+200.0/3)/5)
		})

		Convey("Then course rows are sorted and carry mean-of-ratio rates", func() {
			So(snap.Courses, ShouldHaveLength, 2)
			So(snap.Courses[0].CourseID, ShouldEqual, "c1")
			So(snap.Courses[0].CompletionRatePct, ShouldAlmostEqual, 42.5)
			So(snap.Courses[0].Events, ShouldEqual, 6)
			So(snap.Courses[0].Learners, ShouldEqual, 2)
			So(snap.Courses[1].CourseID, ShouldEqual, "c2")
			So(snap.Courses[1].CompletionRatePct, ShouldAlmostEqual, 55.0)
		})

		Convey("Then only the low-average learner is flagged at risk", func() {
			So(snap.AtRiskLearners, ShouldHaveLength, 1)
			So(snap.AtRiskLearners[0].LearnerID, ShouldEqual, "l2")
			So(snap.AtRiskLearners[0].AvgRatio, ShouldAlmostEqual, 0.2)
			So(snap.AtRiskLearners[0].SampleCount, ShouldEqual, 5)
		})

		Convey("Then weak questions include only those with three observations", func() {
			So(snap.WeakQuestions, ShouldHaveLength, 2)
			// quiz-1 slots 0 and 1 were both answered three times at 2/3
			// accuracy; the remaining slots fall under the sample floor.
			So(snap.WeakQuestions[0].QuizID, ShouldEqual, "quiz-1")
			So(snap.WeakQuestions[0].QuestionIndex, ShouldEqual, 0)
			So(snap.WeakQuestions[0].Accuracy, ShouldAlmostEqual, 2.0/3, 0.001)
			So(snap.WeakQuestions[1].QuestionIndex, ShouldEqual, 1)
		})

		Convey("Then the timeline spans exactly seven gap-filled days", func() {
			So(snap.Timeline, ShouldHaveLength, 7)
			So(snap.Timeline[0].Day, ShouldEqual, "2024-04-27")
			So(snap.Timeline[6].Day, ShouldEqual, "2024-05-03")

			// The first four days precede any data.
			for _, p := range snap.Timeline[:4] {
				So(p.CompletionRatePct, ShouldEqual, 0)
				So(p.ActiveLearners, ShouldEqual, 0)
			}

			d1 := snap.Timeline[4] // 2024-05-01
			So(d1.CompletionRatePct, ShouldAlmostEqual, 100*1.6/3, 0.001)
			So(d1.QuizAttempts, ShouldEqual, 2)
			So(d1.QuizAvgScorePct, ShouldAlmostEqual, (100+100.0/3)/2, 0.001)
			So(d1.ActiveLearners, ShouldEqual, 2)

			d3 := snap.Timeline[6] // 2024-05-03
			So(d3.CompletionRatePct, ShouldAlmostEqual, 100*1.7/3, 0.001)
			So(d3.QuizAttempts, ShouldEqual, 1)
			So(d3.ActiveLearners, ShouldEqual, 2)
		})

		Convey("Then quiz rows are sorted with best-score tracking", func() {
			So(snap.Quizzes, ShouldHaveLength, 2)
			So(snap.Quizzes[0].QuizID, ShouldEqual, "quiz-1")
			So(snap.Quizzes[0].Attempts, ShouldEqual, 3)
			So(snap.Quizzes[0].BestScorePct, ShouldAlmostEqual, 100.0)
			So(snap.Quizzes[1].QuizID, ShouldEqual, "quiz-2")
			So(snap.Quizzes[1].Attempts, ShouldEqual, 2)
		})

		Convey("Then recomputing with identical inputs is bit-identical", func() {
			again := eng.Compute(events, attempts, questions, period)
			So(reflect.DeepEqual(snap, again), ShouldBeTrue)
		})
	})

	Convey("Given empty inputs", t, func() {
		eng := engine.New()
		snap := eng.Compute(nil, nil, nil, engine.Period{
			Days:      7,
			Reference: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
		})

		Convey("Then rates are zero, lists empty, and the timeline still full-length", func() {
			So(snap.Overall.CompletionRatePct, ShouldEqual, 0)
			So(snap.Overall.QuizAvgScorePct, ShouldEqual, 0)
			So(snap.Courses, ShouldBeEmpty)
			So(snap.Chapters, ShouldBeEmpty)
			So(snap.AtRiskLearners, ShouldBeEmpty)
			So(snap.WeakQuestions, ShouldBeEmpty)
			So(snap.Timeline, ShouldHaveLength, 7)
		})
	})
}
