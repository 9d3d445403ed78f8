package loadgen

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edupulse/edupulse/internal/domain/types"
)

// retrieveSummaries fetches the learner summary for every learner that
// appears in the dataset, concurrently. It exercises the parent-facing
// read path and sanity-checks that active learners report activity.
func retrieveSummaries(ctx context.Context, config *Config, dataset Dataset, stats *Stats) error {
	learnerIDs := distinctLearners(dataset)
	log.Printf("retrieving summaries for %d learners with %d workers...", len(learnerIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		retrieved int64
		empty     int64
		failed    int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	idChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for learnerID := range idChan {
				select {
				case <-ctx.Done():
					return
				default:
					summary, err := retrieveSingleSummary(ctx, client, config, learnerID)
					switch {
					case err != nil:
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to get summary for %s: %v", learnerID, err)
						}
					case summary.Totals.ProgressEvents == 0 && summary.Totals.QuizAttempts == 0:
						// Every dataset learner produced at least one record.
						atomic.AddInt64(&empty, 1)
					default:
						atomic.AddInt64(&retrieved, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&empty) + atomic.LoadInt64(&failed)
						log.Printf("summary progress: %d/%d retrieved (ok: %d, empty: %d, failed: %d)",
							total, len(learnerIDs), atomic.LoadInt64(&retrieved), atomic.LoadInt64(&empty), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, id := range learnerIDs {
			select {
			case <-ctx.Done():
				return
			case idChan <- id:
			}
		}
	}()

	wg.Wait()

	log.Printf(`summary retrieval completed:
   Retrieved: %d
   Empty: %d
   Failed: %d
`, atomic.LoadInt64(&retrieved), atomic.LoadInt64(&empty), atomic.LoadInt64(&failed))

	if emptyCount, failedCount := atomic.LoadInt64(&empty), atomic.LoadInt64(&failed); emptyCount > 0 || failedCount > 0 {
		stats.ChecksFailed++
		return fmt.Errorf("summary retrieval: %d empty, %d failed", emptyCount, failedCount)
	}

	stats.ChecksPassed++
	return nil
}

// retrieveSingleSummary fetches the summary for one learner.
func retrieveSingleSummary(ctx context.Context, client *HTTPClient, config *Config, learnerID string) (types.LearnerSummary, error) {
	url := fmt.Sprintf("%s/learners/%s/summary?days=%d", config.BaseURL, learnerID, config.PeriodDays)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return types.LearnerSummary{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return types.LearnerSummary{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return types.LearnerSummary{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var summary types.LearnerSummary
	if err := unmarshalJSON(body, &summary); err != nil {
		return types.LearnerSummary{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return summary, nil
}

// distinctLearners collects every learner id that produced a record.
func distinctLearners(dataset Dataset) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, ev := range dataset.Events {
		if _, ok := seen[ev.LearnerID]; !ok {
			seen[ev.LearnerID] = struct{}{}
			ids = append(ids, ev.LearnerID)
		}
	}
	for _, at := range dataset.Attempts {
		if _, ok := seen[at.LearnerID]; !ok {
			seen[at.LearnerID] = struct{}{}
			ids = append(ids, at.LearnerID)
		}
	}
	return ids
}
