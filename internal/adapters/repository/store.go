// Package repository defines the record store interface and errors.
//
// The store is deliberately dumb: it persists raw records and serves
// windowed reads scoped by owner or learner. All aggregation happens in the
// engine so every surface folds through identical logic.
package repository

import (
	"context"

	"github.com/edupulse/edupulse/internal/domain/model"
)

// Counts summarizes the stored record volume for the stats endpoint.
type Counts struct {
	ProgressEvents int64
	QuizAttempts   int64
	QuizBanks      int64
}

// Store provides write and windowed read access to raw records.
type Store interface {
	// RecordProgress persists one watch event. Re-inserting an existing
	// event id is a silent no-op; idempotency is enforced upstream but
	// replays after a restart must not fail ingestion.
	RecordProgress(ctx context.Context, ev model.ProgressEvent) error

	// RecordAttempt persists one quiz attempt, same replay semantics.
	RecordAttempt(ctx context.Context, at model.QuizAttempt) error

	// UpsertBank stores or replaces the question definitions of a quiz.
	UpsertBank(ctx context.Context, bank model.QuizBank) error

	// EventsByOwner returns the owner's events with occurred-at in
	// [fromMs, toMs], ordered by occurrence then id.
	EventsByOwner(ctx context.Context, ownerID string, fromMs, toMs int64) ([]model.ProgressEvent, error)

	// EventsByLearner is the learner-scoped variant used by the parent
	// summary surface.
	EventsByLearner(ctx context.Context, learnerID string, fromMs, toMs int64) ([]model.ProgressEvent, error)

	// AttemptsByOwner returns the owner's attempts with created-at in
	// [fromMs, toMs], ordered by creation then id.
	AttemptsByOwner(ctx context.Context, ownerID string, fromMs, toMs int64) ([]model.QuizAttempt, error)

	// AttemptsByLearner is the learner-scoped variant.
	AttemptsByLearner(ctx context.Context, learnerID string, fromMs, toMs int64) ([]model.QuizAttempt, error)

	// QuestionsByOwner returns every question key of the owner, grouped by
	// quiz id.
	QuestionsByOwner(ctx context.Context, ownerID string) (map[string][]model.QuestionDef, error)

	// QuestionsByQuizIDs returns question keys for the given quizzes.
	// Unknown ids are simply absent from the result.
	QuestionsByQuizIDs(ctx context.Context, quizIDs []string) (map[string][]model.QuestionDef, error)

	// TotalCounts reports stored record volume.
	TotalCounts(ctx context.Context) (Counts, error)

	// Close releases the underlying database handle.
	Close() error
}
