// Package progress folds raw watch events into per-learner, per-course,
// per-chapter and per-day running sums.
//
// Aggregates are transient: a Result is built fresh per call and carries no
// lifecycle beyond the snapshot it feeds. Sample counts always count folded
// events; they are never inferred from sums.
package progress

import (
	"time"

	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/internal/domain/ratio"
)

// LearnerAggregate accumulates the ratios observed for one learner.
type LearnerAggregate struct {
	LearnerID   string
	RatioSum    float64
	SampleCount int
}

// AvgRatio returns the mean ratio for the learner, 0 when no samples exist.
func (l *LearnerAggregate) AvgRatio() float64 {
	if l.SampleCount == 0 {
		return 0
	}
	return l.RatioSum / float64(l.SampleCount)
}

// ScopeAggregate accumulates ratios for a course or chapter scope together
// with the set of learners seen in that scope.
type ScopeAggregate struct {
	ID               string
	RatioSum         float64
	SampleCount      int
	DistinctLearners map[string]struct{}
}

// CompletionRate returns the mean ratio of the events folded into the
// scope, 0 when the scope is empty. The definition is identical at every
// scope: it is not a weighted share of learners who completed.
func (s *ScopeAggregate) CompletionRate() float64 {
	if s.SampleCount == 0 {
		return 0
	}
	return s.RatioSum / float64(s.SampleCount)
}

// DayAggregate accumulates progress activity for one calendar day.
type DayAggregate struct {
	Day            string
	RatioSum       float64
	SampleCount    int
	ActiveLearners map[string]struct{}
}

// CompletionRate returns the mean ratio of the day's events, 0 when empty.
func (d *DayAggregate) CompletionRate() float64 {
	if d.SampleCount == 0 {
		return 0
	}
	return d.RatioSum / float64(d.SampleCount)
}

// Result holds every dimension produced by one aggregation pass.
type Result struct {
	ByLearner map[string]*LearnerAggregate
	ByCourse  map[string]*ScopeAggregate
	ByChapter map[string]*ScopeAggregate
	ByDay     map[string]*DayAggregate

	// RatioSum and SampleCount mirror the per-dimension sums at the
	// overall scope so callers do not have to re-walk a map.
	RatioSum    float64
	SampleCount int
}

// CompletionRate returns the overall mean ratio, 0 when no events folded.
func (r *Result) CompletionRate() float64 {
	if r.SampleCount == 0 {
		return 0
	}
	return r.RatioSum / float64(r.SampleCount)
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithCalculator sets the ratio calculator shared with the rest of the
// engine. All surfaces must fold through the same calculator.
func WithCalculator(calc *ratio.Calculator) Option {
	return func(a *Aggregator) {
		if calc != nil {
			a.calc = calc
		}
	}
}

// WithLocation sets the reference timezone for day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// Aggregator folds progress events. It is stateless between calls and safe
// for concurrent use.
type Aggregator struct {
	calc *ratio.Calculator
	loc  *time.Location
}

// New creates an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		calc: ratio.New(),
		loc:  time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate performs a single pass over events and returns fresh aggregates
// for every dimension. The input slice is read-only.
func (a *Aggregator) Aggregate(events []model.ProgressEvent) *Result {
	res := &Result{
		ByLearner: make(map[string]*LearnerAggregate),
		ByCourse:  make(map[string]*ScopeAggregate),
		ByChapter: make(map[string]*ScopeAggregate),
		ByDay:     make(map[string]*DayAggregate),
	}

	for i := range events {
		ev := &events[i]
		r := a.calc.Ratio(ev.WatchedSeconds, ev.DurationSeconds)

		res.RatioSum += r
		res.SampleCount++

		learner, ok := res.ByLearner[ev.LearnerID]
		if !ok {
			learner = &LearnerAggregate{LearnerID: ev.LearnerID}
			res.ByLearner[ev.LearnerID] = learner
		}
		learner.RatioSum += r
		learner.SampleCount++

		foldScope(res.ByCourse, ev.CourseID, ev.LearnerID, r)
		foldScope(res.ByChapter, ev.ChapterID, ev.LearnerID, r)

		day := model.DayKey(ev.OccurredAtMs, a.loc)
		bucket, ok := res.ByDay[day]
		if !ok {
			bucket = &DayAggregate{Day: day, ActiveLearners: make(map[string]struct{})}
			res.ByDay[day] = bucket
		}
		bucket.RatioSum += r
		bucket.SampleCount++
		bucket.ActiveLearners[ev.LearnerID] = struct{}{}
	}

	return res
}

func foldScope(m map[string]*ScopeAggregate, id, learnerID string, r float64) {
	agg, ok := m[id]
	if !ok {
		agg = &ScopeAggregate{ID: id, DistinctLearners: make(map[string]struct{})}
		m[id] = agg
	}
	agg.RatioSum += r
	agg.SampleCount++
	agg.DistinctLearners[learnerID] = struct{}{}
}
