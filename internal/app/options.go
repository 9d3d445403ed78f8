package service

import (
	"time"

	"github.com/edupulse/edupulse/internal/adapters/repository"
	"github.com/edupulse/edupulse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the ingest queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDBPath sets the SQLite database file path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithStore injects a pre-built store, bypassing WithDBPath. Used by tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLocation sets the timezone used for day bucketing and windows.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithFallbackSeconds sets the ratio fallback denominator.
func WithFallbackSeconds(seconds float64) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.fallbackSeconds = seconds
		}
	}
}

// WithAtRiskPolicy sets the at-risk threshold and minimum sample count.
func WithAtRiskPolicy(threshold float64, minSamples int) Option {
	return func(s *Service) {
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
	return func(s *Service) {
		if limit > 0 {
			s.riskLimit = limit
		}
	}
}

// WithWeakQuestionPolicy sets the minimum attempts per ranked question.
func WithWeakQuestionPolicy(minAttempts int) Option {
	return func(s *Service) {
		if minAttempts > 0 {
			s.weakMinAttempts = minAttempts
		}
	}
}

// WithWeakQuestionLimit caps the weak-question list length.
func WithWeakQuestionLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.weakLimit = limit
		}
	}
}

// WithPeriodBounds sets the default and maximum dashboard window lengths.
func WithPeriodBounds(defaultDays, maxDays int) Option {
	return func(s *Service) {
		if defaultDays > 0 {
			s.periodDays = defaultDays
		}
		if maxDays >= defaultDays && maxDays > 0 {
			s.maxPeriodDays = maxDays
		}
	}
}

// WithSnapshotCacheTTL bounds how long a computed snapshot is served.
func WithSnapshotCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
