package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS progress_events (
    event_id         TEXT PRIMARY KEY,
    owner_id         TEXT NOT NULL,
    learner_id       TEXT NOT NULL,
    course_id        TEXT NOT NULL,
    chapter_id       TEXT NOT NULL,
    watched_seconds  REAL NOT NULL,
    duration_seconds REAL NOT NULL,
    occurred_at_ms   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_progress_owner_time  ON progress_events(owner_id, occurred_at_ms);
CREATE INDEX IF NOT EXISTS idx_progress_learner_time ON progress_events(learner_id, occurred_at_ms);

CREATE TABLE IF NOT EXISTS quiz_attempts (
    attempt_id    TEXT PRIMARY KEY,
    owner_id      TEXT NOT NULL,
    quiz_id       TEXT NOT NULL,
    learner_id    TEXT NOT NULL,
    answers       TEXT NOT NULL,
    score         REAL NOT NULL,
    max_score     REAL NOT NULL,
    created_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_owner_time  ON quiz_attempts(owner_id, created_at_ms);
CREATE INDEX IF NOT EXISTS idx_attempts_learner_time ON quiz_attempts(learner_id, created_at_ms);

CREATE TABLE IF NOT EXISTS quiz_banks (
    quiz_id   TEXT PRIMARY KEY,
    owner_id  TEXT NOT NULL,
    questions TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_banks_owner ON quiz_banks(owner_id);
`

// SQLiteStore implements Store on a single SQLite database file. The
// modernc driver is pure Go, so the service stays CGO-free.
type SQLiteStore struct {
	db *sql.DB
}

// Option applies a configuration option to the SQLiteStore open call.
type Option func(*openSettings)

type openSettings struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets how long a write waits on a locked database before
// failing.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *openSettings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema. Use ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	settings := &openSettings{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(settings)
	}

	dsn := fmt.Sprintf("%s?_time_format=sqlite&_pragma=busy_timeout(%d)", path, settings.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrMigrate, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordProgress persists one watch event, ignoring replays of a known id.
func (s *SQLiteStore) RecordProgress(ctx context.Context, ev model.ProgressEvent) error {
	start := time.Now()
	defer func() { metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds())) }()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO progress_events
			(event_id, owner_id, learner_id, course_id, chapter_id, watched_seconds, duration_seconds, occurred_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.OwnerID, ev.LearnerID, ev.CourseID, ev.ChapterID,
		ev.WatchedSeconds, ev.DurationSeconds, ev.OccurredAtMs,
	)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("insert progress event: %w", err)
	}
	return nil
}

// RecordAttempt persists one quiz attempt, ignoring replays of a known id.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, at model.QuizAttempt) error {
	start := time.Now()
	defer func() { metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds())) }()

	answers, err := json.Marshal(at.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO quiz_attempts
			(attempt_id, owner_id, quiz_id, learner_id, answers, score, max_score, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		at.AttemptID, at.OwnerID, at.QuizID, at.LearnerID, string(answers),
		at.Score, at.MaxScore, at.CreatedAtMs,
	)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

// UpsertBank stores or replaces the question definitions of a quiz.
func (s *SQLiteStore) UpsertBank(ctx context.Context, bank model.QuizBank) error {
	start := time.Now()
	defer func() { metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds())) }()

	questions, err := json.Marshal(bank.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quiz_banks (quiz_id, owner_id, questions)
		VALUES (?, ?, ?)
		ON CONFLICT(quiz_id) DO UPDATE SET owner_id = excluded.owner_id, questions = excluded.questions`,
		bank.QuizID, bank.OwnerID, string(questions),
	)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert quiz bank: %w", err)
	}
	return nil
}

// EventsByOwner returns the owner's events inside the window.
func (s *SQLiteStore) EventsByOwner(ctx context.Context, ownerID string, fromMs, toMs int64) ([]model.ProgressEvent, error) {
	return s.queryEvents(ctx, `owner_id = ?`, ownerID, fromMs, toMs)
}

// EventsByLearner returns the learner's events inside the window.
func (s *SQLiteStore) EventsByLearner(ctx context.Context, learnerID string, fromMs, toMs int64) ([]model.ProgressEvent, error) {
	return s.queryEvents(ctx, `learner_id = ?`, learnerID, fromMs, toMs)
}

func (s *SQLiteStore) queryEvents(ctx context.Context, scope, scopeID string, fromMs, toMs int64) ([]model.ProgressEvent, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, owner_id, learner_id, course_id, chapter_id, watched_seconds, duration_seconds, occurred_at_ms
		FROM progress_events
		WHERE `+scope+` AND occurred_at_ms BETWEEN ? AND ?
		ORDER BY occurred_at_ms, event_id`,
		scopeID, fromMs, toMs,
	)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	defer rows.Close()

	var events []model.ProgressEvent
	for rows.Next() {
		var ev model.ProgressEvent
		if err := rows.Scan(
			&ev.EventID, &ev.OwnerID, &ev.LearnerID, &ev.CourseID, &ev.ChapterID,
			&ev.WatchedSeconds, &ev.DurationSeconds, &ev.OccurredAtMs,
		); err != nil {
			return nil, fmt.Errorf("scan progress event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress events: %w", err)
	}
	return events, nil
}

// AttemptsByOwner returns the owner's attempts inside the window.
func (s *SQLiteStore) AttemptsByOwner(ctx context.Context, ownerID string, fromMs, toMs int64) ([]model.QuizAttempt, error) {
	return s.queryAttempts(ctx, `owner_id = ?`, ownerID, fromMs, toMs)
}

// AttemptsByLearner returns the learner's attempts inside the window.
func (s *SQLiteStore) AttemptsByLearner(ctx context.Context, learnerID string, fromMs, toMs int64) ([]model.QuizAttempt, error) {
	return s.queryAttempts(ctx, `learner_id = ?`, learnerID, fromMs, toMs)
}

func (s *SQLiteStore) queryAttempts(ctx context.Context, scope, scopeID string, fromMs, toMs int64) ([]model.QuizAttempt, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT attempt_id, owner_id, quiz_id, learner_id, answers, score, max_score, created_at_ms
		FROM quiz_attempts
		WHERE `+scope+` AND created_at_ms BETWEEN ? AND ?
		ORDER BY created_at_ms, attempt_id`,
		scopeID, fromMs, toMs,
	)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var at model.QuizAttempt
		var answers string
		if err := rows.Scan(
			&at.AttemptID, &at.OwnerID, &at.QuizID, &at.LearnerID, &answers,
			&at.Score, &at.MaxScore, &at.CreatedAtMs,
		); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &at.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		attempts = append(attempts, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz attempts: %w", err)
	}
	return attempts, nil
}

// QuestionsByOwner returns every question key of the owner grouped by quiz.
func (s *SQLiteStore) QuestionsByOwner(ctx context.Context, ownerID string) (map[string][]model.QuestionDef, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT quiz_id, questions FROM quiz_banks WHERE owner_id = ?`, ownerID)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query quiz banks: %w", err)
	}
	defer rows.Close()
	return scanBanks(rows)
}

// QuestionsByQuizIDs returns question keys for the given quizzes.
func (s *SQLiteStore) QuestionsByQuizIDs(ctx context.Context, quizIDs []string) (map[string][]model.QuestionDef, error) {
	if len(quizIDs) == 0 {
		return map[string][]model.QuestionDef{}, nil
	}

	start := time.Now()
	defer func() { metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds())) }()

	query := `SELECT quiz_id, questions FROM quiz_banks WHERE quiz_id IN (?` +
		repeatPlaceholder(len(quizIDs)-1) + `)`
	args := make([]any, len(quizIDs))
	for i, id := range quizIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query quiz banks: %w", err)
	}
	defer rows.Close()
	return scanBanks(rows)
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

func scanBanks(rows *sql.Rows) (map[string][]model.QuestionDef, error) {
	banks := make(map[string][]model.QuestionDef)
	for rows.Next() {
		var quizID, questions string
		if err := rows.Scan(&quizID, &questions); err != nil {
			return nil, fmt.Errorf("scan quiz bank: %w", err)
		}
		var defs []model.QuestionDef
		if err := json.Unmarshal([]byte(questions), &defs); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		banks[quizID] = defs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz banks: %w", err)
	}
	return banks, nil
}

// TotalCounts reports stored record volume.
func (s *SQLiteStore) TotalCounts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM progress_events),
			(SELECT COUNT(*) FROM quiz_attempts),
			(SELECT COUNT(*) FROM quiz_banks)`)
	if err := row.Scan(&c.ProgressEvents, &c.QuizAttempts, &c.QuizBanks); err != nil {
		metrics.RecordStoreError()
		return Counts{}, fmt.Errorf("count records: %w", err)
	}
	return c, nil
}
