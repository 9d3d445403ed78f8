// Package model contains the raw records consumed by the analytics engine.
//
// Records are produced by the ingest layer, persisted by the repository,
// and read back for aggregation. The engine treats them as immutable.
package model

import "time"

// DayLayout is the wire format for calendar-day bucket keys.
const DayLayout = "2006-01-02"

// ProgressEvent is one observation of how much of a chapter a learner watched.
type ProgressEvent struct {
	EventID         string  // unique id for idempotency
	OwnerID         string  // content owner the course belongs to
	LearnerID       string  // subject learner identifier
	CourseID        string  // course the chapter belongs to
	ChapterID       string  // chapter being watched
	WatchedSeconds  float64 // observed watch time
	DurationSeconds float64 // total chapter length; 0 when unknown
	OccurredAtMs    int64   // occurrence time, unix milliseconds
}

// QuestionDef describes one question of a quiz, in quiz order.
//
// CorrectOptions is set-valued to match the authoring data model, but
// current product policy authors exactly one correct index per question.
// The engine does not reject multi-valued entries; it checks membership.
type QuestionDef struct {
	QuestionID     string
	Prompt         string
	Options        []string
	CorrectOptions []int
}

// IsCorrect reports whether the selected option index is a correct answer
// and lies inside the option range.
func (q QuestionDef) IsCorrect(selected int) bool {
	if selected < 0 || selected >= len(q.Options) {
		return false
	}
	for _, c := range q.CorrectOptions {
		if c == selected {
			return true
		}
	}
	return false
}

// QuizBank carries the question definitions for one quiz.
type QuizBank struct {
	QuizID    string
	OwnerID   string
	Questions []QuestionDef
}

// QuizAttempt is one graded submission of a quiz by a learner.
//
// Answers holds one slot per question in question order; a nil slot means
// the question was left unanswered.
type QuizAttempt struct {
	AttemptID   string
	OwnerID     string
	QuizID      string
	LearnerID   string
	Answers     []*int
	Score       float64
	MaxScore    float64
	CreatedAtMs int64
}

// IngestRecord is the envelope flowing through the ingest queue. Exactly
// one of the pointers is non-nil.
type IngestRecord struct {
	Progress *ProgressEvent
	Attempt  *QuizAttempt
	Bank     *QuizBank
}

// DayKey buckets a unix-millisecond timestamp into a calendar day in loc.
// Every day-key in the system must be derived through this function so
// that all surfaces agree near midnight.
func DayKey(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format(DayLayout)
}
