// Package worker drains the ingest queue and persists records through the
// repository.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/edupulse/edupulse/internal/adapters/mq/queue"
	"github.com/edupulse/edupulse/pkg/logger"
	"github.com/edupulse/edupulse/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Record abstracts what workers read off the queue.
type Record = queue.Record

// Recorder persists a single ingest record.
type Recorder interface {
	RecordProgress(ctx context.Context, ev Record) error
	RecordAttempt(ctx context.Context, ev Record) error
	RecordBank(ctx context.Context, ev Record) error
}

// Source defines how workers receive records.
type Source interface {
	Dequeue(ctx context.Context) <-chan Record
}

// Worker processes records until its source closes or shutdown is called.
type Worker struct {
	source   Source
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName names the worker for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a worker with configuration options.
func New(source Source, recorder Recorder, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop until ctx is canceled, shutdown is requested
// or the source closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := w.process(ctx, rec); err != nil {
				w.logger.Error(ctx, "failed to persist record", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the loop to exit.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("worker shutdown timed out: %w", ctx.Err())
	}
}

// process dispatches one record to the matching recorder call.
func (w *Worker) process(ctx context.Context, rec Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	var err error
	switch {
	case rec.Progress != nil:
		err = w.recorder.RecordProgress(ctx, rec)
	case rec.Attempt != nil:
		err = w.recorder.RecordAttempt(ctx, rec)
	case rec.Bank != nil:
		err = w.recorder.RecordBank(ctx, rec)
	default:
		// Empty envelopes are dropped; nothing to persist.
		return nil
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_write")
		return fmt.Errorf("record ingest payload: %w", err)
	}
	metrics.RecordIngestPersisted()
	return nil
}

// Pool runs a fixed set of workers over one source.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates count workers (2x CPUs when count is not positive).
func NewPool(count int, source Source, recorder Recorder) *Pool {
	if count <= 0 {
		count = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*Worker, 0, count),
		logger:  logger.Get().Named("workerpool"),
	}
	for i := 0; i < count; i++ {
		p.workers = append(p.workers, New(source, recorder, WithName("worker-"+strconv.Itoa(i))))
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateWorkerCount(len(p.workers))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop shuts every worker down and waits for the pool to drain.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}
