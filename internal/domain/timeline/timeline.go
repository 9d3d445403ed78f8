// Package timeline produces fixed-length, gap-filled daily series for
// charting. The fixed-length property is what lets clients plot the series
// without padding it themselves.
package timeline

import (
	"time"

	"github.com/edupulse/edupulse/internal/domain/progress"
	"github.com/edupulse/edupulse/internal/domain/quiz"
)

// percentScale converts mean ratios to the 0-100 display range.
const percentScale = 100

// DaySnapshot is one point of the merged daily series.
type DaySnapshot struct {
	Day               string
	CompletionRatePct float64
	QuizAttempts      int
	QuizAvgScorePct   float64
	ActiveLearners    int
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLocation sets the reference timezone used to enumerate calendar days.
// It must match the timezone the day buckets were keyed with.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// Builder merges progress-day and quiz-day buckets into a daily series.
// Stateless and safe for concurrent use.
type Builder struct {
	loc *time.Location
}

// New creates a Builder with configuration options.
func New(opts ...Option) *Builder {
	b := &Builder{loc: time.UTC}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns exactly periodDays entries, one per calendar day from
// reference-(periodDays-1) through reference inclusive, ascending. Days
// with no data are present with zeroed fields. Active learners per day are
// the union of progress-active and quiz-active learner ids.
func (b *Builder) Build(
	progressByDay map[string]*progress.DayAggregate,
	quizByDay map[string]*quiz.DayAggregate,
	periodDays int,
	reference time.Time,
) []DaySnapshot {
	if periodDays <= 0 {
		return []DaySnapshot{}
	}

	ref := reference.In(b.loc)
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, b.loc).
		AddDate(0, 0, -(periodDays - 1))

	series := make([]DaySnapshot, 0, periodDays)
	for i := 0; i < periodDays; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		point := DaySnapshot{Day: day}

		active := make(map[string]struct{})
		if p, ok := progressByDay[day]; ok {
			point.CompletionRatePct = p.CompletionRate() * percentScale
			for id := range p.ActiveLearners {
				active[id] = struct{}{}
			}
		}
		if q, ok := quizByDay[day]; ok {
			point.QuizAttempts = q.Attempts
			point.QuizAvgScorePct = q.AvgScorePct()
			for id := range q.ActiveLearners {
				active[id] = struct{}{}
			}
		}
		point.ActiveLearners = len(active)

		series = append(series, point)
	}
	return series
}
