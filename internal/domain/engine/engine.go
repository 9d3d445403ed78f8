// Package engine is the canonical aggregation entry point. It composes the
// ratio calculator, the progress aggregator, the quiz scorer, the at-risk
// classifier, the weak-question ranker and the timeline builder into one
// pure function from raw records to a Snapshot.
//
// The legacy system computed these numbers three separate times (backend
// job, teacher console, parent console) with drifting thresholds and day
// bucketing. Every surface now calls Compute; collaborators contribute only
// their own fetch and scoping logic.
package engine

import (
	"sort"
	"time"

	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/internal/domain/progress"
	"github.com/edupulse/edupulse/internal/domain/quiz"
	"github.com/edupulse/edupulse/internal/domain/ratio"
	"github.com/edupulse/edupulse/internal/domain/risk"
	"github.com/edupulse/edupulse/internal/domain/timeline"
	"github.com/edupulse/edupulse/internal/domain/types"
	"github.com/edupulse/edupulse/internal/domain/weakness"
)

// percentScale converts mean ratios to the 0-100 display range.
const percentScale = 100

// Period describes the aggregation window: PeriodDays calendar days ending
// at Reference, inclusive.
type Period struct {
	Days      int
	Reference time.Time
}

// Option applies a configuration option to the Engine.
type Option func(*settings)

// settings collects the policy knobs before the sub-components are built.
type settings struct {
	loc             *time.Location
	fallbackSeconds float64
	riskThreshold   float64
	riskMinSamples  int
	riskLimit       int
	weakMinAttempts int
	weakLimit       int
}

// WithLocation sets the single reference timezone used for every day key
// the engine produces.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithFallbackSeconds sets the ratio fallback denominator for chapters of
// unknown length.
func WithFallbackSeconds(seconds float64) Option {
	return func(s *settings) {
		if seconds > 0 {
			s.fallbackSeconds = seconds
		}
	}
}

// WithAtRiskPolicy sets the at-risk threshold and minimum sample count.
func WithAtRiskPolicy(threshold float64, minSamples int) Option {
	return func(s *settings) {
		if threshold > 0 && threshold <= 1 {
			s.riskThreshold = threshold
		}
		if minSamples > 0 {
			s.riskMinSamples = minSamples
		}
	}
}

// WithAtRiskLimit caps the at-risk list length.
func WithAtRiskLimit(limit int) Option {
	return func(s *settings) {
		if limit > 0 {
			s.riskLimit = limit
		}
	}
}

// WithWeakQuestionPolicy sets the minimum observations per ranked question.
func WithWeakQuestionPolicy(minAttempts int) Option {
	return func(s *settings) {
		if minAttempts > 0 {
			s.weakMinAttempts = minAttempts
		}
	}
}

// WithWeakQuestionLimit caps the weak-question list length.
func WithWeakQuestionLimit(limit int) Option {
	return func(s *settings) {
		if limit > 0 {
			s.weakLimit = limit
		}
	}
}

// Engine computes snapshots. It holds only immutable policy configuration,
// so a single Engine is safe for any number of concurrent Compute calls.
type Engine struct {
	aggregator *progress.Aggregator
	scorer     *quiz.Scorer
	classifier *risk.Classifier
	ranker     *weakness.Ranker
	builder    *timeline.Builder
	riskLimit  int
	weakLimit  int
}

// New creates an Engine with configuration options.
func New(opts ...Option) *Engine {
	s := &settings{
		loc:       time.UTC,
		riskLimit: risk.DefaultLimit,
		weakLimit: weakness.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	var ratioOpts []ratio.Option
	if s.fallbackSeconds > 0 {
		ratioOpts = append(ratioOpts, ratio.WithFallbackSeconds(s.fallbackSeconds))
	}
	calc := ratio.New(ratioOpts...)

	var riskOpts []risk.Option
	if s.riskThreshold > 0 {
		riskOpts = append(riskOpts, risk.WithThreshold(s.riskThreshold))
	}
	if s.riskMinSamples > 0 {
		riskOpts = append(riskOpts, risk.WithMinSamples(s.riskMinSamples))
	}

	var weakOpts []weakness.Option
	if s.weakMinAttempts > 0 {
		weakOpts = append(weakOpts, weakness.WithMinAttempts(s.weakMinAttempts))
	}

	return &Engine{
		aggregator: progress.New(progress.WithCalculator(calc), progress.WithLocation(s.loc)),
		scorer:     quiz.New(quiz.WithLocation(s.loc)),
		classifier: risk.New(riskOpts...),
		ranker:     weakness.New(weakOpts...),
		builder:    timeline.New(timeline.WithLocation(s.loc)),
		riskLimit:  s.riskLimit,
		weakLimit:  s.weakLimit,
	}
}

// Compute folds the supplied window of records into one Snapshot. It
// performs no I/O and does not mutate its inputs; identical inputs produce
// identical output.
func (e *Engine) Compute(
	events []model.ProgressEvent,
	attempts []model.QuizAttempt,
	questionsByQuiz map[string][]model.QuestionDef,
	period Period,
) types.Snapshot {
	prog := e.aggregator.Aggregate(events)
	quizzes := e.scorer.Score(attempts, questionsByQuiz)

	snap := types.Snapshot{
		Overall: types.Totals{
			CompletionRatePct: prog.CompletionRate() * percentScale,
			ProgressEvents:    prog.SampleCount,
			Learners:          len(prog.ByLearner),
			QuizAttempts:      quizzes.Attempts,
			QuizAvgScorePct:   quizzes.AvgScorePct(),
		},
		Courses:        courseRows(prog.ByCourse),
		Chapters:       chapterRows(prog.ByChapter),
		Quizzes:        quizRows(quizzes.ByQuiz),
		AtRiskLearners: atRiskRows(e.classifier.Classify(prog.ByLearner, e.riskLimit)),
		WeakQuestions:  weakRows(e.ranker.Rank(quizzes.ByQuestion, e.weakLimit)),
		Timeline:       timelineRows(e.builder.Build(prog.ByDay, quizzes.ByDay, period.Days, period.Reference)),
	}
	return snap
}

// Map-backed aggregates are sorted by id before leaving the engine so the
// output is byte-stable across calls.

func courseRows(byCourse map[string]*progress.ScopeAggregate) []types.CourseStats {
	rows := make([]types.CourseStats, 0, len(byCourse))
	for _, agg := range byCourse {
		rows = append(rows, types.CourseStats{
			CourseID:          agg.ID,
			CompletionRatePct: agg.CompletionRate() * percentScale,
			Events:            agg.SampleCount,
			Learners:          len(agg.DistinctLearners),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CourseID < rows[j].CourseID })
	return rows
}

func chapterRows(byChapter map[string]*progress.ScopeAggregate) []types.ChapterStats {
	rows := make([]types.ChapterStats, 0, len(byChapter))
	for _, agg := range byChapter {
		rows = append(rows, types.ChapterStats{
			ChapterID:         agg.ID,
			CompletionRatePct: agg.CompletionRate() * percentScale,
			Events:            agg.SampleCount,
			Learners:          len(agg.DistinctLearners),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ChapterID < rows[j].ChapterID })
	return rows
}

func quizRows(byQuiz map[string]*quiz.QuizAggregate) []types.QuizStats {
	rows := make([]types.QuizStats, 0, len(byQuiz))
	for _, agg := range byQuiz {
		rows = append(rows, types.QuizStats{
			QuizID:       agg.QuizID,
			Attempts:     agg.Attempts,
			AvgScorePct:  agg.AvgScorePct(),
			BestScorePct: agg.BestScorePct,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].QuizID < rows[j].QuizID })
	return rows
}

func atRiskRows(entries []risk.Entry) []types.AtRiskEntry {
	rows := make([]types.AtRiskEntry, len(entries))
	for i, e := range entries {
		rows[i] = types.AtRiskEntry{
			LearnerID:   e.LearnerID,
			AvgRatio:    e.AvgRatio,
			SampleCount: e.SampleCount,
		}
	}
	return rows
}

func weakRows(entries []weakness.Entry) []types.WeakQuestionEntry {
	rows := make([]types.WeakQuestionEntry, len(entries))
	for i, e := range entries {
		rows[i] = types.WeakQuestionEntry{
			QuizID:        e.QuizID,
			QuestionIndex: e.QuestionIndex,
			Accuracy:      e.Accuracy,
			Attempts:      e.Attempts,
		}
	}
	return rows
}

func timelineRows(points []timeline.DaySnapshot) []types.DayPoint {
	rows := make([]types.DayPoint, len(points))
	for i, p := range points {
		rows[i] = types.DayPoint{
			Day:               p.Day,
			CompletionRatePct: p.CompletionRatePct,
			QuizAttempts:      p.QuizAttempts,
			QuizAvgScorePct:   p.QuizAvgScorePct,
			ActiveLearners:    p.ActiveLearners,
		}
	}
	return rows
}
