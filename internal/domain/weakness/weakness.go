// Package weakness ranks quiz questions by observed accuracy so teachers
// can see which questions their learners struggle with.
package weakness

import (
	"sort"

	"github.com/edupulse/edupulse/internal/domain/quiz"
)

// Default ranking constants.
const (
	// defaultMinAttempts is the sample floor below which an accuracy figure
	// is statistically meaningless and the question is excluded.
	defaultMinAttempts = 3
	// DefaultLimit matches the historical list length shown in consoles.
	DefaultLimit = 8
)

// Entry describes one ranked question.
type Entry struct {
	QuizID        string
	QuestionIndex int
	Accuracy      float64
	Attempts      int
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithMinAttempts sets the minimum number of answered observations a
// question needs before it can be ranked.
func WithMinAttempts(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.minAttempts = n
		}
	}
}

// Ranker applies the weak-question policy. Stateless and safe for
// concurrent use.
type Ranker struct {
	minAttempts int
}

// New creates a Ranker with configuration options.
func New(opts ...Option) *Ranker {
	r := &Ranker{minAttempts: defaultMinAttempts}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank returns the weakest questions, lowest accuracy first, truncated to
// limit (DefaultLimit when limit is not positive). Accuracy ties break by
// attempts descending: a weak question seen often is more actionable than
// one seen rarely. Remaining ties order by quiz id then question index for
// determinism.
func (r *Ranker) Rank(byQuestion map[quiz.QuestionKey]*quiz.QuestionAggregate, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := make([]Entry, 0, len(byQuestion))
	for key, agg := range byQuestion {
		if agg.Attempts < r.minAttempts {
			continue
		}
		ranked = append(ranked, Entry{
			QuizID:        key.QuizID,
			QuestionIndex: key.Index,
			Accuracy:      agg.Accuracy(),
			Attempts:      agg.Attempts,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Accuracy != b.Accuracy {
			return a.Accuracy < b.Accuracy
		}
		if a.Attempts != b.Attempts {
			return a.Attempts > b.Attempts
		}
		if a.QuizID != b.QuizID {
			return a.QuizID < b.QuizID
		}
		return a.QuestionIndex < b.QuestionIndex
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
