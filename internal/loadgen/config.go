package loadgen

import "time"

// Config holds configuration for a load run
type Config struct {
	BaseURL     string        // Base URL of the service
	OwnerID     string        // Content owner all generated traffic belongs to
	NumLearners int           // Number of synthetic learners in the cohort
	NumEvents   int           // Number of progress events to generate
	NumQuizzes  int           // Number of quiz banks to author
	NumAttempts int           // Number of quiz attempts to generate
	PeriodDays  int           // Dashboard window to fetch and verify against
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	SettleDelay time.Duration // Wait between ingest and verification
	OutputFile  string        // Output file for the generated dataset
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
}

// Event is the wire shape of one progress event submission.
type Event struct {
	EventID         string  `json:"event_id"`
	OwnerID         string  `json:"owner_id"`
	LearnerID       string  `json:"learner_id"`
	CourseID        string  `json:"course_id"`
	ChapterID       string  `json:"chapter_id"`
	WatchedSeconds  float64 `json:"watched_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	OccurredAtMs    int64   `json:"occurred_at_ms"`
}

// Attempt is the wire shape of one quiz attempt submission.
type Attempt struct {
	AttemptID   string  `json:"attempt_id"`
	OwnerID     string  `json:"owner_id"`
	QuizID      string  `json:"quiz_id"`
	LearnerID   string  `json:"learner_id"`
	Answers     []*int  `json:"answers"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	CreatedAtMs int64   `json:"created_at_ms"`
}

// Question is the wire shape of one authored quiz question.
type Question struct {
	QuestionID     string   `json:"question_id"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	CorrectOptions []int    `json:"correct_options"`
}

// Bank is the wire shape of one quiz bank upsert.
type Bank struct {
	QuizID    string     `json:"quiz_id"`
	OwnerID   string     `json:"owner_id"`
	Questions []Question `json:"questions"`
}

// AckResponse represents the response from an ingest submission
type AckResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Dataset is the full generated workload: everything the run submits,
// kept so the verifier can recompute the expected snapshot locally.
type Dataset struct {
	Events   []Event
	Attempts []Attempt
	Banks    []Bank
}

// Stats holds run statistics
type Stats struct {
	EventsGenerated   int
	AttemptsGenerated int
	BanksGenerated    int
	Submitted         int
	Successful        int
	Duplicate         int
	Failed            int
	ChecksPassed      int
	ChecksFailed      int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
