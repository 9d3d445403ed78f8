package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edupulse/edupulse/internal/adapters/mq/queue"
	"github.com/edupulse/edupulse/internal/adapters/mq/worker"
	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type captureRecorder struct {
	mu       sync.Mutex
	progress int
	attempts int
	banks    int
}

func (c *captureRecorder) RecordProgress(_ context.Context, _ worker.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress++
	return nil
}

func (c *captureRecorder) RecordAttempt(_ context.Context, _ worker.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	return nil
}

func (c *captureRecorder) RecordBank(_ context.Context, _ worker.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banks++
	return nil
}

func (c *captureRecorder) counts() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress, c.attempts, c.banks
}

func TestWorkerProcessing(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a worker pool over an ingest queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		rec := &captureRecorder{}
		pool := worker.NewPool(2, q, rec)
		pool.Start(ctx)

		Convey("When mixed records are enqueued", func() {
			q.Enqueue(ctx, worker.Record{Progress: &model.ProgressEvent{EventID: "e1"}})
			q.Enqueue(ctx, worker.Record{Progress: &model.ProgressEvent{EventID: "e2"}})
			q.Enqueue(ctx, worker.Record{Attempt: &model.QuizAttempt{AttemptID: "a1"}})
			q.Enqueue(ctx, worker.Record{Bank: &model.QuizBank{QuizID: "quiz-1"}})
			q.Enqueue(ctx, worker.Record{}) // empty envelope, dropped

			Convey("Then each record reaches the matching recorder call", func() {
				deadline := time.Now().Add(2 * time.Second)
				for {
					p, a, b := rec.counts()
					if (p == 2 && a == 1 && b == 1) || time.Now().After(deadline) {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				p, a, b := rec.counts()
				So(p, ShouldEqual, 2)
				So(a, ShouldEqual, 1)
				So(b, ShouldEqual, 1)
			})
		})

		Convey("When the pool is stopped", func() {
			pool.Stop()

			Convey("Then stopping completes without hanging", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}
