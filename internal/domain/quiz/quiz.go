// Package quiz grades quiz attempts against their question keys and folds
// the results into per-quiz, per-question and per-day statistics.
package quiz

import (
	"time"

	"github.com/edupulse/edupulse/internal/domain/model"
)

// percentScale converts score fractions to the 0-100 range used everywhere
// a score is displayed.
const percentScale = 100

// QuizAggregate accumulates attempt statistics for one quiz.
type QuizAggregate struct {
	QuizID           string
	Attempts         int
	ScoreSum         float64
	ScoreSampleCount int
	BestScorePct     float64
}

// AvgScorePct returns the mean score percentage over attempts with a
// positive max score, 0 when none exist.
func (q *QuizAggregate) AvgScorePct() float64 {
	if q.ScoreSampleCount == 0 {
		return 0
	}
	return q.ScoreSum / float64(q.ScoreSampleCount)
}

// QuestionKey identifies a question by quiz and position.
type QuestionKey struct {
	QuizID string
	Index  int
}

// QuestionAggregate accumulates answer outcomes for one question. A slot
// contributes only when it was actually answered.
type QuestionAggregate struct {
	QuizID   string
	Index    int
	Attempts int
	Correct  int
}

// Accuracy returns the observed share of correct answers, 0 when the
// question was never answered.
func (q *QuestionAggregate) Accuracy() float64 {
	if q.Attempts == 0 {
		return 0
	}
	return float64(q.Correct) / float64(q.Attempts)
}

// DayAggregate accumulates quiz activity for one calendar day.
type DayAggregate struct {
	Day              string
	Attempts         int
	ScoreSum         float64
	ScoreSampleCount int
	ActiveLearners   map[string]struct{}
}

// AvgScorePct returns the mean score percentage of the day, 0 when empty.
func (d *DayAggregate) AvgScorePct() float64 {
	if d.ScoreSampleCount == 0 {
		return 0
	}
	return d.ScoreSum / float64(d.ScoreSampleCount)
}

// Result holds every dimension produced by one scoring pass.
type Result struct {
	ByQuiz     map[string]*QuizAggregate
	ByQuestion map[QuestionKey]*QuestionAggregate
	ByDay      map[string]*DayAggregate

	// Overall attempt statistics across all counted attempts.
	Attempts         int
	ScoreSum         float64
	ScoreSampleCount int
}

// AvgScorePct returns the overall mean score percentage, 0 when no attempt
// carried a positive max score.
func (r *Result) AvgScorePct() float64 {
	if r.ScoreSampleCount == 0 {
		return 0
	}
	return r.ScoreSum / float64(r.ScoreSampleCount)
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithLocation sets the reference timezone for day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(s *Scorer) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Scorer folds quiz attempts. Stateless and safe for concurrent use.
type Scorer struct {
	loc *time.Location
}

// New creates a Scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score grades attempts against questionsByQuiz and returns fresh
// aggregates.
//
// An attempt referencing a quiz absent from questionsByQuiz is dropped
// entirely; attempts may legitimately reference quizzes outside the query
// scope, so this is silent degradation rather than an error. A quiz present
// with an empty question list acts as a stub: its attempts count at the
// quiz level without question-level folding.
func (s *Scorer) Score(attempts []model.QuizAttempt, questionsByQuiz map[string][]model.QuestionDef) *Result {
	res := &Result{
		ByQuiz:     make(map[string]*QuizAggregate),
		ByQuestion: make(map[QuestionKey]*QuestionAggregate),
		ByDay:      make(map[string]*DayAggregate),
	}

	for i := range attempts {
		at := &attempts[i]
		questions, known := questionsByQuiz[at.QuizID]
		if !known {
			continue
		}

		// Attempts with maxScore == 0 count as attempts but never feed a
		// score average.
		scorePct := 0.0
		scored := at.MaxScore > 0
		if scored {
			scorePct = at.Score / at.MaxScore * percentScale
		}

		res.Attempts++
		if scored {
			res.ScoreSum += scorePct
			res.ScoreSampleCount++
		}

		qa, ok := res.ByQuiz[at.QuizID]
		if !ok {
			qa = &QuizAggregate{QuizID: at.QuizID}
			res.ByQuiz[at.QuizID] = qa
		}
		qa.Attempts++
		if scored {
			qa.ScoreSum += scorePct
			qa.ScoreSampleCount++
			if scorePct > qa.BestScorePct {
				qa.BestScorePct = scorePct
			}
		}

		day := model.DayKey(at.CreatedAtMs, s.loc)
		bucket, ok := res.ByDay[day]
		if !ok {
			bucket = &DayAggregate{Day: day, ActiveLearners: make(map[string]struct{})}
			res.ByDay[day] = bucket
		}
		bucket.Attempts++
		if scored {
			bucket.ScoreSum += scorePct
			bucket.ScoreSampleCount++
		}
		bucket.ActiveLearners[at.LearnerID] = struct{}{}

		s.foldAnswers(res, at, questions)
	}

	return res
}

// foldAnswers walks the answer slots of one attempt. Unanswered slots and
// slots beyond the question list are skipped; answered slots with an index
// outside the option range count as answered but incorrect.
func (s *Scorer) foldAnswers(res *Result, at *model.QuizAttempt, questions []model.QuestionDef) {
	n := len(at.Answers)
	if len(questions) < n {
		n = len(questions)
	}
	for i := 0; i < n; i++ {
		selected := at.Answers[i]
		if selected == nil {
			continue
		}
		key := QuestionKey{QuizID: at.QuizID, Index: i}
		agg, ok := res.ByQuestion[key]
		if !ok {
			agg = &QuestionAggregate{QuizID: at.QuizID, Index: i}
			res.ByQuestion[key] = agg
		}
		agg.Attempts++
		if questions[i].IsCorrect(*selected) {
			agg.Correct++
		}
	}
}
