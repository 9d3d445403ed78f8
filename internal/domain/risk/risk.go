// Package risk flags learners whose aggregated completion ratios fall below
// a threshold with enough samples to be meaningful.
//
// The threshold and minimum sample count used to diverge between the
// teacher console, the parent tracker and the backend summary job; they are
// defined here once and every surface classifies through this package.
package risk

import (
	"sort"

	"github.com/edupulse/edupulse/internal/domain/progress"
)

// Default classification constants.
const (
	// defaultThreshold is the mean ratio below which a learner is at risk.
	defaultThreshold = 0.4
	// defaultMinSamples guards against flagging on a single low sample,
	// which is noise rather than a pattern.
	defaultMinSamples = 2
	// DefaultLimit matches the historical list length shown in consoles.
	DefaultLimit = 8
)

// Entry describes one flagged learner.
type Entry struct {
	LearnerID   string
	AvgRatio    float64
	SampleCount int
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThreshold sets the mean-ratio threshold. Values outside (0,1] are
// ignored.
func WithThreshold(threshold float64) Option {
	return func(c *Classifier) {
		if threshold > 0 && threshold <= 1 {
			c.threshold = threshold
		}
	}
}

// WithMinSamples sets the minimum number of folded events required before
// a learner can be flagged.
func WithMinSamples(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.minSamples = n
		}
	}
}

// Classifier applies the at-risk policy. Stateless and safe for concurrent
// use.
type Classifier struct {
	threshold  float64
	minSamples int
}

// New creates a Classifier with configuration options.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		threshold:  defaultThreshold,
		minSamples: defaultMinSamples,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the learners considered at risk, worst first, truncated
// to limit (DefaultLimit when limit is not positive). Ties on the average
// ratio break by learner id ascending so identical inputs always produce
// identical output.
func (c *Classifier) Classify(byLearner map[string]*progress.LearnerAggregate, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	flagged := make([]Entry, 0, len(byLearner))
	for id, agg := range byLearner {
		if agg.SampleCount < c.minSamples {
			continue
		}
		avg := agg.AvgRatio()
		if avg >= c.threshold {
			continue
		}
		flagged = append(flagged, Entry{
			LearnerID:   id,
			AvgRatio:    avg,
			SampleCount: agg.SampleCount,
		})
	}

	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].AvgRatio != flagged[j].AvgRatio {
			return flagged[i].AvgRatio < flagged[j].AvgRatio
		}
		return flagged[i].LearnerID < flagged[j].LearnerID
	})

	if len(flagged) > limit {
		flagged = flagged[:limit]
	}
	return flagged
}
