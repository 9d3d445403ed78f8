package loadgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edupulse/edupulse/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Drain polling constants.
const (
	drainPollInterval = 500 * time.Millisecond
)

// Run executes the complete load run: generate, submit, drain, verify.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting edupulse load run",
		logger.String("baseURL", config.BaseURL),
		logger.String("ownerID", config.OwnerID),
		logger.Int("learners", config.NumLearners),
		logger.Int("events", config.NumEvents),
		logger.Int("quizzes", config.NumQuizzes),
		logger.Int("attempts", config.NumAttempts),
		logger.Int("periodDays", config.PeriodDays),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the synthetic dataset
	dataset, err := generateDataset(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("dataset generation failed: %w", err)
	}

	// Step 3: Author quiz banks first so attempts can be graded on arrival
	banks := make([]interface{}, len(dataset.Banks))
	for i, bank := range dataset.Banks {
		banks[i] = bank
	}
	if err := submitPayloads(ctx, config, "/quizzes", "quiz banks", banks, stats); err != nil {
		return fmt.Errorf("quiz bank submission failed: %w", err)
	}

	// Step 4: Submit progress events concurrently
	events := make([]interface{}, len(dataset.Events))
	for i, ev := range dataset.Events {
		events[i] = ev
	}
	if err := submitPayloads(ctx, config, "/events", "events", events, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	// Step 5: Submit quiz attempts concurrently
	attempts := make([]interface{}, len(dataset.Attempts))
	for i, at := range dataset.Attempts {
		attempts[i] = at
	}
	if err := submitPayloads(ctx, config, "/attempts", "attempts", attempts, stats); err != nil {
		return fmt.Errorf("attempt submission failed: %w", err)
	}

	// Step 6: Wait for the ingest queue to drain
	if err := waitForDrain(ctx, config); err != nil {
		return fmt.Errorf("ingest drain failed: %w", err)
	}

	// Step 7: Verify the dashboard against a local recomputation
	if err := verifyDashboard(ctx, config, dataset, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Fetch learner summaries concurrently
	if err := retrieveSummaries(ctx, config, dataset, stats); err != nil {
		return fmt.Errorf("summary retrieval failed: %w", err)
	}

	// Step 9: Save the dataset to file
	if err := saveDatasetToFile(ctx, config, dataset); err != nil {
		logger.Get().Warn(ctx, "failed to save dataset to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// waitForDrain polls /stats until the ingest queue is empty, then lets the
// settle delay pass so the snapshot cache expires before verification.
func waitForDrain(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "waiting for ingest queue to drain")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/stats"

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while draining: %w", ctx.Err())
		default:
		}

		resp, err := client.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("stats request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read stats response: %w", err)
		}
		if resp.StatusCode != StatusOK {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var serviceStats map[string]interface{}
		if err := unmarshalJSON(body, &serviceStats); err != nil {
			return fmt.Errorf("failed to parse stats response: %w", err)
		}

		// JSON numbers decode as float64.
		queueLength, _ := serviceStats["queueLength"].(float64)
		if queueLength == 0 {
			break
		}
		time.Sleep(drainPollInterval)
	}

	logger.Get().Info(ctx, "ingest queue drained; settling", logger.Duration("settleDelay", config.SettleDelay))
	time.Sleep(config.SettleDelay)
	return nil
}

// saveDatasetToFile saves the generated dataset to a JSON file.
func saveDatasetToFile(ctx context.Context, config *Config, dataset Dataset) error {
	if len(dataset.Events) == 0 && len(dataset.Attempts) == 0 {
		return fmt.Errorf("no dataset to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "loadgen_dataset_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := marshalJSON(struct {
		Banks    []Bank    `json:"banks"`
		Events   []Event   `json:"events"`
		Attempts []Attempt `json:"attempts"`
	}{Banks: dataset.Banks, Events: dataset.Events, Attempts: dataset.Attempts})
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	logger.Get().Info(ctx, "dataset saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, recordsPerSecond float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		recordsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("attemptsGenerated", stats.AttemptsGenerated),
		logger.Int("banksGenerated", stats.BanksGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("checksPassed", stats.ChecksPassed),
		logger.Int("checksFailed", stats.ChecksFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("recordsPerSecond", recordsPerSecond))
}
