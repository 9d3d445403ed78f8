// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file path.
	DBPath string `koanf:"db_path"`

	// Timezone is the IANA zone used to bucket records into days, e.g.
	// "UTC" or "Asia/Tokyo". Every day-level fold uses this one zone.
	Timezone string `koanf:"timezone"`

	// QueueSize bounds the in-memory ingest queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// FallbackDurationSeconds replaces missing or non-positive content
	// durations when computing watch ratios.
	FallbackDurationSeconds float64 `koanf:"fallback_duration_seconds"`

	// AtRiskThreshold is the average-ratio cutoff below which a learner
	// is flagged, and AtRiskMinSamples the minimum events required.
	AtRiskThreshold  float64 `koanf:"at_risk_threshold"`
	AtRiskMinSamples int     `koanf:"at_risk_min_samples"`

	// AtRiskLimit caps the at-risk list length.
	AtRiskLimit int `koanf:"at_risk_limit"`

	// WeakQuestionMinAttempts is the minimum attempts before a question
	// qualifies for the weak-question ranking.
	WeakQuestionMinAttempts int `koanf:"weak_question_min_attempts"`

	// WeakQuestionLimit caps the weak-question list length.
	WeakQuestionLimit int `koanf:"weak_question_limit"`

	// DefaultPeriodDays is the dashboard window when none is requested;
	// MaxPeriodDays caps ?days= on the read endpoints.
	DefaultPeriodDays int `koanf:"default_period_days"`
	MaxPeriodDays     int `koanf:"max_period_days"`

	// SnapshotCacheTTLMS bounds how long a computed snapshot is served
	// before recomputation.
	SnapshotCacheTTLMS int `koanf:"snapshot_cache_ttl_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		DBPath:                  "edupulse.db",
		Timezone:                "UTC",
		QueueSize:               100_000,
		WorkerCount:             runtime.NumCPU() * 2,
		DedupeSize:              50_000,
		FallbackDurationSeconds: 600,
		AtRiskThreshold:         0.4,
		AtRiskMinSamples:        2,
		AtRiskLimit:             8,
		WeakQuestionMinAttempts: 3,
		WeakQuestionLimit:       8,
		DefaultPeriodDays:       7,
		MaxPeriodDays:           90,
		SnapshotCacheTTLMS:      2_000,
	}
}
