package loadgen

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/edupulse/edupulse/internal/domain/engine"
	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/internal/domain/types"
)

// floatTolerance absorbs float64 accumulation-order differences between
// the server and the local recomputation.
const floatTolerance = 1e-6

// verifyDashboard fetches the owner dashboard from the server and compares
// it against a snapshot recomputed locally from the submitted dataset.
func verifyDashboard(ctx context.Context, config *Config, dataset Dataset, stats *Stats) error {
	log.Println("verifying dashboard against local recomputation...")

	remote, err := fetchDashboard(ctx, config)
	if err != nil {
		return fmt.Errorf("dashboard fetch failed: %w", err)
	}

	local := computeLocalSnapshot(config, dataset)

	check := func(name string, ok bool, detail string) {
		if ok {
			stats.ChecksPassed++
			if config.Verbose {
				log.Printf("check passed: %s", name)
			}
			return
		}
		stats.ChecksFailed++
		log.Printf("check FAILED: %s (%s)", name, detail)
	}

	check("progress event count", remote.Overall.ProgressEvents == local.Overall.ProgressEvents,
		fmt.Sprintf("remote=%d local=%d", remote.Overall.ProgressEvents, local.Overall.ProgressEvents))
	check("learner count", remote.Overall.Learners == local.Overall.Learners,
		fmt.Sprintf("remote=%d local=%d", remote.Overall.Learners, local.Overall.Learners))
	check("quiz attempt count", remote.Overall.QuizAttempts == local.Overall.QuizAttempts,
		fmt.Sprintf("remote=%d local=%d", remote.Overall.QuizAttempts, local.Overall.QuizAttempts))
	check("completion rate", closeEnough(remote.Overall.CompletionRatePct, local.Overall.CompletionRatePct),
		fmt.Sprintf("remote=%.6f local=%.6f", remote.Overall.CompletionRatePct, local.Overall.CompletionRatePct))
	check("quiz average score", closeEnough(remote.Overall.QuizAvgScorePct, local.Overall.QuizAvgScorePct),
		fmt.Sprintf("remote=%.6f local=%.6f", remote.Overall.QuizAvgScorePct, local.Overall.QuizAvgScorePct))

	check("course rows", len(remote.Courses) == len(local.Courses),
		fmt.Sprintf("remote=%d local=%d", len(remote.Courses), len(local.Courses)))
	check("chapter rows", len(remote.Chapters) == len(local.Chapters),
		fmt.Sprintf("remote=%d local=%d", len(remote.Chapters), len(local.Chapters)))
	check("quiz rows", len(remote.Quizzes) == len(local.Quizzes),
		fmt.Sprintf("remote=%d local=%d", len(remote.Quizzes), len(local.Quizzes)))
	check("timeline length", len(remote.Timeline) == config.PeriodDays,
		fmt.Sprintf("remote=%d want=%d", len(remote.Timeline), config.PeriodDays))

	check("at-risk list", sameAtRisk(remote.AtRiskLearners, local.AtRiskLearners),
		fmt.Sprintf("remote=%d local=%d entries", len(remote.AtRiskLearners), len(local.AtRiskLearners)))
	check("weak questions", sameWeakQuestions(remote.WeakQuestions, local.WeakQuestions),
		fmt.Sprintf("remote=%d local=%d entries", len(remote.WeakQuestions), len(local.WeakQuestions)))

	if stats.ChecksFailed > 0 {
		return fmt.Errorf("%d of %d verification checks failed", stats.ChecksFailed, stats.ChecksFailed+stats.ChecksPassed)
	}

	log.Printf("all %d verification checks passed", stats.ChecksPassed)
	return nil
}

// fetchDashboard retrieves the owner dashboard for the configured window.
func fetchDashboard(ctx context.Context, config *Config) (types.Snapshot, error) {
	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/dashboard/%s?days=%d", config.BaseURL, config.OwnerID, config.PeriodDays)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return types.Snapshot{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var snap types.Snapshot
	if err := unmarshalJSON(body, &snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return snap, nil
}

// computeLocalSnapshot recomputes the expected snapshot from the dataset
// with the engine's default policy, which matches an unconfigured server.
func computeLocalSnapshot(config *Config, dataset Dataset) types.Snapshot {
	events := make([]model.ProgressEvent, len(dataset.Events))
	for i, ev := range dataset.Events {
		events[i] = model.ProgressEvent{
			EventID:         ev.EventID,
			OwnerID:         ev.OwnerID,
			LearnerID:       ev.LearnerID,
			CourseID:        ev.CourseID,
			ChapterID:       ev.ChapterID,
			WatchedSeconds:  ev.WatchedSeconds,
			DurationSeconds: ev.DurationSeconds,
			OccurredAtMs:    ev.OccurredAtMs,
		}
	}

	attempts := make([]model.QuizAttempt, len(dataset.Attempts))
	for i, at := range dataset.Attempts {
		attempts[i] = model.QuizAttempt{
			AttemptID:   at.AttemptID,
			OwnerID:     at.OwnerID,
			QuizID:      at.QuizID,
			LearnerID:   at.LearnerID,
			Answers:     at.Answers,
			Score:       at.Score,
			MaxScore:    at.MaxScore,
			CreatedAtMs: at.CreatedAtMs,
		}
	}

	questionsByQuiz := make(map[string][]model.QuestionDef, len(dataset.Banks))
	for _, bank := range dataset.Banks {
		defs := make([]model.QuestionDef, len(bank.Questions))
		for i, q := range bank.Questions {
			defs[i] = model.QuestionDef{
				QuestionID:     q.QuestionID,
				Prompt:         q.Prompt,
				Options:        q.Options,
				CorrectOptions: q.CorrectOptions,
			}
		}
		questionsByQuiz[bank.QuizID] = defs
	}

	eng := engine.New()
	return eng.Compute(events, attempts, questionsByQuiz, engine.Period{
		Days:      config.PeriodDays,
		Reference: time.Now(),
	})
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

func sameAtRisk(remote, local []types.AtRiskEntry) bool {
	if len(remote) != len(local) {
		return false
	}
	for i := range remote {
		if remote[i].LearnerID != local[i].LearnerID ||
			remote[i].SampleCount != local[i].SampleCount ||
			!closeEnough(remote[i].AvgRatio, local[i].AvgRatio) {
			return false
		}
	}
	return true
}

func sameWeakQuestions(remote, local []types.WeakQuestionEntry) bool {
	if len(remote) != len(local) {
		return false
	}
	for i := range remote {
		if remote[i].QuizID != local[i].QuizID ||
			remote[i].QuestionIndex != local[i].QuestionIndex ||
			remote[i].Attempts != local[i].Attempts ||
			!closeEnough(remote[i].Accuracy, local[i].Accuracy) {
			return false
		}
	}
	return true
}
