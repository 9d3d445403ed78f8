package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/edupulse/edupulse/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileDivisor     = 100
)

// Cohort shape constants.
const (
	coursesPerCohort  = 4
	chaptersPerCourse = 6
	questionsPerQuiz  = 5
	optionsPerQuest   = 4
)

// Learner profile mix, cumulative percentages.
const (
	strugglingCutoff = 15 // 15% struggling
	averageCutoff    = 70 // 55% average
)

// Watch-ratio ranges per profile.
const (
	strugglingRatioMin   = 0.02
	strugglingRatioRange = 0.30
	averageRatioMin      = 0.30
	averageRatioRange    = 0.45
	diligentRatioMin     = 0.70
	diligentRatioRange   = 0.35
)

// Answer behavior per profile.
const (
	strugglingCorrectProb = 0.30
	averageCorrectProb    = 0.60
	diligentCorrectProb   = 0.90
	skipProbability       = 0.10
)

// Chapter duration generation.
const (
	chapterDurationMin     = 180.0
	chapterDurationRange   = 720.0
	unknownDurationPercent = 10 // chapters reported with no length
)

// profile describes one synthetic learner's behavior.
type profile struct {
	ratioMin    float64
	ratioRange  float64
	correctProb float64
}

// learner is one member of the synthetic cohort.
type learner struct {
	id      string
	profile profile
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomIndex returns a random int in [0, n) using crypto/rand.
func randomIndex(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// pickProfile assigns a behavior profile with the configured cohort mix.
func pickProfile() profile {
	roll, _ := rand.Int(rand.Reader, big.NewInt(profileDivisor))
	switch {
	case roll.Int64() < strugglingCutoff:
		return profile{ratioMin: strugglingRatioMin, ratioRange: strugglingRatioRange, correctProb: strugglingCorrectProb}
	case roll.Int64() < averageCutoff:
		return profile{ratioMin: averageRatioMin, ratioRange: averageRatioRange, correctProb: averageCorrectProb}
	default:
		return profile{ratioMin: diligentRatioMin, ratioRange: diligentRatioRange, correctProb: diligentCorrectProb}
	}
}

// generateDataset builds the full synthetic workload for one run: a learner
// cohort, the quiz banks it sits, and the progress events and attempts the
// cohort produces inside the verification window.
func generateDataset(ctx context.Context, config *Config, stats *Stats) (Dataset, error) {
	logger.Get().Info(ctx, "generating dataset",
		logger.String("ownerID", config.OwnerID),
		logger.Int("learners", config.NumLearners),
		logger.Int("events", config.NumEvents),
		logger.Int("quizzes", config.NumQuizzes),
		logger.Int("attempts", config.NumAttempts))

	cohort := make([]learner, config.NumLearners)
	for i := range cohort {
		cohort[i] = learner{id: uuid.New().String(), profile: pickProfile()}
	}

	chapters := generateChapters()
	banks := generateBanks(config)
	events, err := generateEvents(ctx, config, cohort, chapters, stats)
	if err != nil {
		return Dataset{}, err
	}
	attempts := generateAttempts(config, cohort, banks, stats)

	stats.BanksGenerated = len(banks)
	stats.AttemptsGenerated = len(attempts)

	logger.Get().Info(ctx, "dataset generated",
		logger.Int("events", len(events)),
		logger.Int("attempts", len(attempts)),
		logger.Int("banks", len(banks)))

	return Dataset{Events: events, Attempts: attempts, Banks: banks}, nil
}

// chapterRef is one chapter of the synthetic course catalog. Duration zero
// models content with no reported length.
type chapterRef struct {
	courseID  string
	chapterID string
	duration  float64
}

func generateChapters() []chapterRef {
	chapters := make([]chapterRef, 0, coursesPerCohort*chaptersPerCourse)
	for c := 0; c < coursesPerCohort; c++ {
		courseID := "course-" + strconv.Itoa(c)
		for ch := 0; ch < chaptersPerCourse; ch++ {
			duration := chapterDurationMin + getRandomFloat()*chapterDurationRange
			if randomIndex(profileDivisor) < unknownDurationPercent {
				duration = 0
			}
			chapters = append(chapters, chapterRef{
				courseID:  courseID,
				chapterID: courseID + "-chapter-" + strconv.Itoa(ch),
				duration:  duration,
			})
		}
	}
	return chapters
}

func generateBanks(config *Config) []Bank {
	banks := make([]Bank, config.NumQuizzes)
	for q := range banks {
		quizID := config.OwnerID + "-quiz-" + strconv.Itoa(q)
		questions := make([]Question, questionsPerQuiz)
		for i := range questions {
			options := make([]string, optionsPerQuest)
			for o := range options {
				options[o] = "option " + strconv.Itoa(o)
			}
			questions[i] = Question{
				QuestionID:     quizID + "-q" + strconv.Itoa(i),
				Prompt:         "question " + strconv.Itoa(i),
				Options:        options,
				CorrectOptions: []int{randomIndex(optionsPerQuest)},
			}
		}
		banks[q] = Bank{QuizID: quizID, OwnerID: config.OwnerID, Questions: questions}
	}
	return banks
}

// generateEvents creates the progress events concurrently. Timestamps are
// spread across the verification window so every event lands inside the
// dashboard period the verifier fetches.
func generateEvents(ctx context.Context, config *Config, cohort []learner, chapters []chapterRef, stats *Stats) ([]Event, error) {
	events := make([]Event, config.NumEvents)

	type eventResult struct {
		index int
		event Event
		err   error
	}

	resultChan := make(chan eventResult, config.NumEvents)

	windowStart := time.Now().Add(-time.Duration(config.PeriodDays-1) * 24 * time.Hour)
	windowMs := time.Now().UnixMilli() - windowStart.UnixMilli()

	workerCount := minInt(config.Workers, config.NumEvents)
	eventsPerWorker := config.NumEvents / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * eventsPerWorker
		end := start + eventsPerWorker
		if worker == workerCount-1 {
			end = config.NumEvents // Last worker gets remaining events
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- eventResult{index: i, err: ctx.Err()}
					return
				default:
					who := cohort[randomIndex(len(cohort))]
					chapter := chapters[randomIndex(len(chapters))]
					resultChan <- eventResult{
						index: i,
						event: generateSingleEvent(config, i, who, chapter, windowStart, windowMs),
					}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during event generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate event %d: %w", result.index, result.err)
			}
			events[result.index] = result.event
		}
	}

	stats.EventsGenerated = len(events)
	return events, nil
}

func generateSingleEvent(config *Config, index int, who learner, chapter chapterRef, windowStart time.Time, windowMs int64) Event {
	ratio := who.profile.ratioMin + getRandomFloat()*who.profile.ratioRange

	duration := chapter.duration
	watchedBase := duration
	if watchedBase == 0 {
		// Unknown length; watch time is still real seconds.
		watchedBase = chapterDurationMin + chapterDurationRange/2
	}

	occurredAt := windowStart.UnixMilli()
	if windowMs > 0 {
		occurredAt += int64(getRandomFloat() * float64(windowMs))
	}

	return Event{
		EventID:         "event-" + strconv.Itoa(index) + "-" + uuid.New().String(),
		OwnerID:         config.OwnerID,
		LearnerID:       who.id,
		CourseID:        chapter.courseID,
		ChapterID:       chapter.chapterID,
		WatchedSeconds:  ratio * watchedBase,
		DurationSeconds: duration,
		OccurredAtMs:    occurredAt,
	}
}

// generateAttempts lets learners sit random quizzes. Answers follow the
// learner's correctness probability against the authored bank, and the
// reported score is recomputed from those answers so the server and the
// local verifier grade identical inputs.
func generateAttempts(config *Config, cohort []learner, banks []Bank, stats *Stats) []Attempt {
	attempts := make([]Attempt, config.NumAttempts)

	windowStart := time.Now().Add(-time.Duration(config.PeriodDays-1) * 24 * time.Hour)
	windowMs := time.Now().UnixMilli() - windowStart.UnixMilli()

	for i := range attempts {
		who := cohort[randomIndex(len(cohort))]
		bank := banks[randomIndex(len(banks))]

		answers := make([]*int, len(bank.Questions))
		correct := 0
		for q, question := range bank.Questions {
			if getRandomFloat() < skipProbability {
				continue // unanswered slot
			}
			selected := randomWrongOption(question)
			if getRandomFloat() < who.profile.correctProb {
				selected = question.CorrectOptions[0]
			}
			pick := selected
			answers[q] = &pick
			if pick == question.CorrectOptions[0] {
				correct++
			}
		}

		occurredAt := windowStart.UnixMilli()
		if windowMs > 0 {
			occurredAt += int64(getRandomFloat() * float64(windowMs))
		}

		attempts[i] = Attempt{
			AttemptID:   "attempt-" + strconv.Itoa(i) + "-" + uuid.New().String(),
			OwnerID:     config.OwnerID,
			QuizID:      bank.QuizID,
			LearnerID:   who.id,
			Answers:     answers,
			Score:       float64(correct),
			MaxScore:    float64(len(bank.Questions)),
			CreatedAtMs: occurredAt,
		}
	}

	return attempts
}

// randomWrongOption picks an option index that is not the correct one.
func randomWrongOption(q Question) int {
	selected := randomIndex(len(q.Options))
	if selected == q.CorrectOptions[0] {
		selected = (selected + 1) % len(q.Options)
	}
	return selected
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
