package quiz_test

import (
	"testing"
	"time"

	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/internal/domain/quiz"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(i int) *int { return &i }

func questionSet() map[string][]model.QuestionDef {
	return map[string][]model.QuestionDef{
		"quiz-1": {
			{QuestionID: "q1", Options: []string{"a", "b"}, CorrectOptions: []int{0}},
			{QuestionID: "q2", Options: []string{"a", "b", "c"}, CorrectOptions: []int{2}},
			{QuestionID: "q3", Options: []string{"a", "b"}, CorrectOptions: []int{1}},
		},
	}
}

func TestScorerScore(t *testing.T) {
	Convey("Given a scorer and a three-question quiz", t, func() {
		scorer := quiz.New(quiz.WithLocation(time.UTC))
		created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

		Convey("When grading a fully answered attempt", func() {
			at := model.QuizAttempt{
				QuizID: "quiz-1", LearnerID: "l1",
				Answers:     []*int{ptr(0), ptr(1), ptr(1)},
				Score:       2, MaxScore: 3,
				CreatedAtMs: created,
			}
			res := scorer.Score([]model.QuizAttempt{at}, questionSet())

			Convey("Then quiz-level stats reflect the score percentage", func() {
				qa := res.ByQuiz["quiz-1"]
				So(qa.Attempts, ShouldEqual, 1)
				So(qa.AvgScorePct(), ShouldAlmostEqual, 100.0*2/3)
				So(qa.BestScorePct, ShouldAlmostEqual, 100.0*2/3)
			})

			Convey("Then each answered slot feeds its question aggregate", func() {
				q1 := res.ByQuestion[quiz.QuestionKey{QuizID: "quiz-1", Index: 0}]
				So(q1.Attempts, ShouldEqual, 1)
				So(q1.Correct, ShouldEqual, 1)
				q2 := res.ByQuestion[quiz.QuestionKey{QuizID: "quiz-1", Index: 1}]
				So(q2.Correct, ShouldEqual, 0)
				q3 := res.ByQuestion[quiz.QuestionKey{QuizID: "quiz-1", Index: 2}]
				So(q3.Correct, ShouldEqual, 1)
			})

			Convey("Then the day bucket records learner activity", func() {
				d := res.ByDay["2024-05-01"]
				So(d.Attempts, ShouldEqual, 1)
				So(d.ActiveLearners, ShouldHaveLength, 1)
				So(d.AvgScorePct(), ShouldAlmostEqual, 100.0*2/3)
			})
		})

		Convey("When an answer slot is left unanswered", func() {
			at := model.QuizAttempt{
				QuizID: "quiz-1", LearnerID: "l1",
				Answers: []*int{ptr(0), nil, ptr(0)},
				Score:   1, MaxScore: 3, CreatedAtMs: created,
			}
			res := scorer.Score([]model.QuizAttempt{at}, questionSet())

			Convey("Then the unanswered slot contributes to no question aggregate", func() {
				_, ok := res.ByQuestion[quiz.QuestionKey{QuizID: "quiz-1", Index: 1}]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a selected index lies outside the option range", func() {
			at := model.QuizAttempt{
				QuizID: "quiz-1", LearnerID: "l1",
				Answers: []*int{ptr(7), nil, nil},
				Score:   0, MaxScore: 3, CreatedAtMs: created,
			}
			res := scorer.Score([]model.QuizAttempt{at}, questionSet())

			Convey("Then it counts as answered but never as correct", func() {
				q1 := res.ByQuestion[quiz.QuestionKey{QuizID: "quiz-1", Index: 0}]
				So(q1.Attempts, ShouldEqual, 1)
				So(q1.Correct, ShouldEqual, 0)
			})
		})

		Convey("When an attempt has maxScore of zero", func() {
			at := model.QuizAttempt{
				QuizID: "quiz-1", LearnerID: "l1",
				Answers: []*int{ptr(0)},
				Score:   0, MaxScore: 0, CreatedAtMs: created,
			}
			res := scorer.Score([]model.QuizAttempt{at}, questionSet())

			Convey("Then it counts as an attempt but not toward averages", func() {
				qa := res.ByQuiz["quiz-1"]
				So(qa.Attempts, ShouldEqual, 1)
				So(qa.ScoreSampleCount, ShouldEqual, 0)
				So(qa.AvgScorePct(), ShouldEqual, 0)
				So(res.Attempts, ShouldEqual, 1)
				So(res.AvgScorePct(), ShouldEqual, 0)
			})
		})

		Convey("When an attempt references an unknown quiz", func() {
			at := model.QuizAttempt{
				QuizID: "quiz-unknown", LearnerID: "l1",
				Answers: []*int{ptr(0)},
				Score:   1, MaxScore: 1, CreatedAtMs: created,
			}
			res := scorer.Score([]model.QuizAttempt{at}, questionSet())

			Convey("Then it is dropped without error", func() {
				So(res.Attempts, ShouldEqual, 0)
				So(res.ByQuiz, ShouldBeEmpty)
				So(res.ByDay, ShouldBeEmpty)
			})
		})

		Convey("When a quiz is present only as a stub with no questions", func() {
			qs := questionSet()
			qs["quiz-stub"] = nil
			at := model.QuizAttempt{
				QuizID: "quiz-stub", LearnerID: "l1",
				Answers: []*int{ptr(0), ptr(1)},
				Score:   1, MaxScore: 2, CreatedAtMs: created,
			}
			res := scorer.Score([]model.QuizAttempt{at}, qs)

			Convey("Then attempts count at the quiz level without question folding", func() {
				So(res.ByQuiz["quiz-stub"].Attempts, ShouldEqual, 1)
				So(res.ByQuestion, ShouldBeEmpty)
			})
		})

		Convey("When several attempts land on the same quiz", func() {
			ats := []model.QuizAttempt{
				{QuizID: "quiz-1", LearnerID: "l1", Answers: []*int{ptr(0), ptr(2), ptr(1)}, Score: 3, MaxScore: 3, CreatedAtMs: created},
				{QuizID: "quiz-1", LearnerID: "l2", Answers: []*int{ptr(1), ptr(2), ptr(0)}, Score: 1, MaxScore: 3, CreatedAtMs: created},
			}
			res := scorer.Score(ats, questionSet())

			Convey("Then best score tracks the maximum percentage", func() {
				qa := res.ByQuiz["quiz-1"]
				So(qa.Attempts, ShouldEqual, 2)
				So(qa.BestScorePct, ShouldAlmostEqual, 100.0)
				So(qa.AvgScorePct(), ShouldAlmostEqual, (100.0+100.0/3)/2)
			})

			Convey("Then question accuracy accumulates across attempts", func() {
				q1 := res.ByQuestion[quiz.QuestionKey{QuizID: "quiz-1", Index: 0}]
				So(q1.Attempts, ShouldEqual, 2)
				So(q1.Correct, ShouldEqual, 1)
				So(q1.Accuracy(), ShouldAlmostEqual, 0.5)
			})
		})
	})
}
