// Package ratio converts raw watch observations into completion ratios.
//
// The ratio formula is the single most duplicated piece of logic in the
// legacy system; every surface (teacher dashboard, parent summary, backend
// stats) must go through this package so the numbers agree.
package ratio

import "math"

// Default calculator configuration constants.
const (
	// defaultFallbackSeconds treats ten minutes of watch time as a complete
	// chapter when the true chapter length is unknown. This is a documented
	// approximation, not a measurement.
	defaultFallbackSeconds = 600
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithFallbackSeconds sets the watch-time denominator used when a chapter's
// duration is unknown or zero.
func WithFallbackSeconds(seconds float64) Option {
	return func(c *Calculator) {
		if seconds > 0 {
			c.fallbackSeconds = seconds
		}
	}
}

// Calculator computes clamped completion ratios. The zero-cost construction
// and lack of state make it safe to share between goroutines.
type Calculator struct {
	fallbackSeconds float64
}

// New creates a Calculator with configuration options.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		fallbackSeconds: defaultFallbackSeconds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ratio returns the completion ratio for one watch observation, always in
// [0,1]. Negative or non-finite watch time is treated as zero. A duration
// of zero (or less, or non-finite) switches to the fallback denominator.
func (c *Calculator) Ratio(watchedSeconds, durationSeconds float64) float64 {
	if watchedSeconds < 0 || math.IsNaN(watchedSeconds) || math.IsInf(watchedSeconds, 0) {
		watchedSeconds = 0
	}
	denom := durationSeconds
	if !(denom > 0) || math.IsInf(denom, 0) {
		denom = c.fallbackSeconds
	}
	r := watchedSeconds / denom
	return math.Max(0, math.Min(1, r))
}
