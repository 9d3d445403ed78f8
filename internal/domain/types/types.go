// Package types contains the read shapes returned by snapshot queries.
// These are the wire contracts shared by the HTTP API and the load
// verifier.
package types

// Totals is the overall KPI block of a snapshot.
type Totals struct {
	CompletionRatePct float64 `json:"completion_rate_pct"`
	ProgressEvents    int     `json:"progress_events"`
	Learners          int     `json:"learners"`
	QuizAttempts      int     `json:"quiz_attempts"`
	QuizAvgScorePct   float64 `json:"quiz_avg_score_pct"`
}

// CourseStats is one per-course table row.
type CourseStats struct {
	CourseID          string  `json:"course_id"`
	CompletionRatePct float64 `json:"completion_rate_pct"`
	Events            int     `json:"events"`
	Learners          int     `json:"learners"`
}

// ChapterStats is one per-chapter table row.
type ChapterStats struct {
	ChapterID         string  `json:"chapter_id"`
	CompletionRatePct float64 `json:"completion_rate_pct"`
	Events            int     `json:"events"`
	Learners          int     `json:"learners"`
}

// QuizStats is one per-quiz table row.
type QuizStats struct {
	QuizID       string  `json:"quiz_id"`
	Attempts     int     `json:"attempts"`
	AvgScorePct  float64 `json:"avg_score_pct"`
	BestScorePct float64 `json:"best_score_pct"`
}

// AtRiskEntry is one flagged learner, worst first.
type AtRiskEntry struct {
	LearnerID   string  `json:"learner_id"`
	AvgRatio    float64 `json:"avg_ratio"`
	SampleCount int     `json:"sample_count"`
}

// WeakQuestionEntry is one low-accuracy question.
type WeakQuestionEntry struct {
	QuizID        string  `json:"quiz_id"`
	QuestionIndex int     `json:"question_index"`
	Accuracy      float64 `json:"accuracy"`
	Attempts      int     `json:"attempts"`
}

// DayPoint is one gap-filled point of the daily series.
type DayPoint struct {
	Day               string  `json:"day"`
	CompletionRatePct float64 `json:"completion_rate_pct"`
	QuizAttempts      int     `json:"quiz_attempts"`
	QuizAvgScorePct   float64 `json:"quiz_avg_score_pct"`
	ActiveLearners    int     `json:"active_learners"`
}

// Snapshot is the full output of one aggregation call.
type Snapshot struct {
	Overall        Totals              `json:"overall"`
	Courses        []CourseStats       `json:"courses"`
	Chapters       []ChapterStats      `json:"chapters"`
	Quizzes        []QuizStats         `json:"quizzes"`
	AtRiskLearners []AtRiskEntry       `json:"at_risk_learners"`
	WeakQuestions  []WeakQuestionEntry `json:"weak_questions"`
	Timeline       []DayPoint          `json:"timeline"`
}

// AttemptInfo is one recent attempt row of a learner summary.
type AttemptInfo struct {
	QuizID      string  `json:"quiz_id"`
	ScorePct    float64 `json:"score_pct"`
	Scored      bool    `json:"scored"`
	CreatedAtMs int64   `json:"created_at_ms"`
}

// LearnerSummary is the parent-facing subset of a snapshot.
type LearnerSummary struct {
	LearnerID      string        `json:"learner_id"`
	Totals         Totals        `json:"totals"`
	Timeline       []DayPoint    `json:"timeline"`
	RecentAttempts []AttemptInfo `json:"recent_attempts"`
}
