// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edupulse/edupulse/internal/adapters/mq/queue"
	"github.com/edupulse/edupulse/internal/adapters/mq/worker"
	"github.com/edupulse/edupulse/internal/adapters/repository"
	"github.com/edupulse/edupulse/internal/domain/dedupe"
	"github.com/edupulse/edupulse/internal/domain/engine"
	"github.com/edupulse/edupulse/internal/domain/model"
	"github.com/edupulse/edupulse/internal/domain/types"
	"github.com/edupulse/edupulse/pkg/logger"
	"github.com/edupulse/edupulse/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize        = 100_000
	defaultDedupeSize       = 50_000
	defaultPeriodDays       = 7
	defaultMaxPeriodDays    = 90
	defaultSnapshotCacheTTL = 2 * time.Second
	recentAttemptLimit      = 10
)

// storeRecorder adapts the repository.Store interface to worker.Recorder.
type storeRecorder struct {
	store repository.Store
}

func (r *storeRecorder) RecordProgress(ctx context.Context, rec worker.Record) error {
	return r.store.RecordProgress(ctx, *rec.Progress)
}

func (r *storeRecorder) RecordAttempt(ctx context.Context, rec worker.Record) error {
	return r.store.RecordAttempt(ctx, *rec.Attempt)
}

func (r *storeRecorder) RecordBank(ctx context.Context, rec worker.Record) error {
	return r.store.UpsertBank(ctx, *rec.Bank)
}

// snapshotKey identifies one cached snapshot: a scope plus a window length.
type snapshotKey struct {
	scope string
	days  int
}

type cachedSnapshot struct {
	snap     types.Snapshot
	computed time.Time
}

// Service implements the API dependencies for the analytics system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	deduper     dedupe.Deduper
	ingestQueue queue.Queue
	eng         *engine.Engine
	workerPool  *worker.Pool

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	dbPath          string
	loc             *time.Location
	fallbackSeconds float64
	riskThreshold   float64
	riskMinSamples  int
	riskLimit       int
	weakMinAttempts int
	weakLimit       int
	periodDays      int
	maxPeriodDays   int
	cacheTTL        time.Duration

	// Snapshot cache
	cacheMu sync.Mutex
	cache   map[snapshotKey]cachedSnapshot

	// State
	started bool
	now     func() time.Time

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		dbPath:        "edupulse.db",
		loc:           time.UTC,
		periodDays:    defaultPeriodDays,
		maxPeriodDays: defaultMaxPeriodDays,
		cacheTTL:      defaultSnapshotCacheTTL,
		cache:         make(map[snapshotKey]cachedSnapshot),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting analytics service...")

	if s.store == nil {
		store, err := repository.NewSQLiteStore(s.dbPath)
		if err != nil {
			return err
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}

	s.deduper = dedupe.New(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.ingestQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)

	var engOpts []engine.Option
	engOpts = append(engOpts, engine.WithLocation(s.loc))
	if s.fallbackSeconds > 0 {
		engOpts = append(engOpts, engine.WithFallbackSeconds(s.fallbackSeconds))
	}
	if s.riskThreshold > 0 {
		engOpts = append(engOpts, engine.WithAtRiskPolicy(s.riskThreshold, s.riskMinSamples))
	}
	if s.riskLimit > 0 {
		engOpts = append(engOpts, engine.WithAtRiskLimit(s.riskLimit))
	}
	if s.weakMinAttempts > 0 {
		engOpts = append(engOpts, engine.WithWeakQuestionPolicy(s.weakMinAttempts))
	}
	if s.weakLimit > 0 {
		engOpts = append(engOpts, engine.WithWeakQuestionLimit(s.weakLimit))
	}
	s.eng = engine.New(engOpts...)

	s.workerPool = worker.NewPool(s.workerCount, s.ingestQueue, &storeRecorder{store: s.store})
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.loc.String()),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping analytics service...")

	if s.ingestQueue != nil {
		_ = s.ingestQueue.Close()
	}

	// Workers drain the queue before the pool stops.
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "analytics service stopped")
}

// IngestProgress validates, deduplicates and enqueues one watch event.
// Returns the event id (assigned when the caller supplied none) and whether
// the id was a replay. Replays are acknowledged without re-enqueueing.
func (s *Service) IngestProgress(ctx context.Context, ev model.ProgressEvent) (string, bool, error) {
	if !s.isStarted() {
		return "", false, ErrNotStarted
	}

	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, ev.EventID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate progress event, skipping",
			logger.String("eventID", ev.EventID),
			logger.String("learnerID", ev.LearnerID),
		)
		return ev.EventID, true, nil
	}

	if !s.ingestQueue.Enqueue(ctx, queue.Record{Progress: &ev}) {
		// Allow a retry of the same id once there is room again.
		s.deduper.Unrecord(ctx, ev.EventID)
		return "", false, ErrQueueFull
	}

	metrics.RecordIngestAccepted()
	metrics.UpdateQueueSize(s.ingestQueue.Len(ctx))
	return ev.EventID, false, nil
}

// IngestAttempt validates, deduplicates and enqueues one quiz attempt.
func (s *Service) IngestAttempt(ctx context.Context, at model.QuizAttempt) (string, bool, error) {
	if !s.isStarted() {
		return "", false, ErrNotStarted
	}

	if at.AttemptID == "" {
		at.AttemptID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, at.AttemptID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate quiz attempt, skipping",
			logger.String("attemptID", at.AttemptID),
			logger.String("learnerID", at.LearnerID),
		)
		return at.AttemptID, true, nil
	}

	if !s.ingestQueue.Enqueue(ctx, queue.Record{Attempt: &at}) {
		s.deduper.Unrecord(ctx, at.AttemptID)
		return "", false, ErrQueueFull
	}

	metrics.RecordIngestAccepted()
	metrics.UpdateQueueSize(s.ingestQueue.Len(ctx))
	return at.AttemptID, false, nil
}

// IngestBank enqueues a quiz definition upsert. Banks are keyed by quiz id
// and replace any previous definition, so no dedupe applies.
func (s *Service) IngestBank(ctx context.Context, bank model.QuizBank) (string, error) {
	if !s.isStarted() {
		return "", ErrNotStarted
	}

	if bank.QuizID == "" {
		bank.QuizID = uuid.NewString()
	}

	if !s.ingestQueue.Enqueue(ctx, queue.Record{Bank: &bank}) {
		return "", ErrQueueFull
	}

	metrics.RecordIngestAccepted()
	metrics.UpdateQueueSize(s.ingestQueue.Len(ctx))
	return bank.QuizID, nil
}

// Dashboard returns the owner-scoped snapshot over the requested window.
// A zero or negative days value selects the default period.
func (s *Service) Dashboard(ctx context.Context, ownerID string, days int) (types.Snapshot, error) {
	if !s.isStarted() {
		return types.Snapshot{}, ErrNotStarted
	}

	days = s.clampDays(days)
	key := snapshotKey{scope: "owner/" + ownerID, days: days}
	if snap, ok := s.cachedSnapshot(key); ok {
		return snap, nil
	}

	reference := s.now().In(s.loc)
	fromMs, toMs := s.windowBounds(reference, days)

	events, err := s.store.EventsByOwner(ctx, ownerID, fromMs, toMs)
	if err != nil {
		return types.Snapshot{}, err
	}
	attempts, err := s.store.AttemptsByOwner(ctx, ownerID, fromMs, toMs)
	if err != nil {
		return types.Snapshot{}, err
	}
	questions, err := s.store.QuestionsByOwner(ctx, ownerID)
	if err != nil {
		return types.Snapshot{}, err
	}

	snap := s.compute(events, attempts, questions, days, reference)
	metrics.UpdateTotalLearners(snap.Overall.Learners)
	s.storeSnapshot(key, snap)
	return snap, nil
}

// LearnerSummary returns the parent-facing view for a single learner.
func (s *Service) LearnerSummary(ctx context.Context, learnerID string, days int) (types.LearnerSummary, error) {
	if !s.isStarted() {
		return types.LearnerSummary{}, ErrNotStarted
	}

	days = s.clampDays(days)
	reference := s.now().In(s.loc)
	fromMs, toMs := s.windowBounds(reference, days)

	events, err := s.store.EventsByLearner(ctx, learnerID, fromMs, toMs)
	if err != nil {
		return types.LearnerSummary{}, err
	}
	attempts, err := s.store.AttemptsByLearner(ctx, learnerID, fromMs, toMs)
	if err != nil {
		return types.LearnerSummary{}, err
	}
	questions, err := s.store.QuestionsByQuizIDs(ctx, quizIDs(attempts))
	if err != nil {
		return types.LearnerSummary{}, err
	}

	snap := s.compute(events, attempts, questions, days, reference)

	return types.LearnerSummary{
		LearnerID:      learnerID,
		Totals:         snap.Overall,
		Timeline:       snap.Timeline,
		RecentAttempts: recentAttempts(attempts, recentAttemptLimit),
	}, nil
}

// AtRisk returns the flagged learners of an owner, worst first.
func (s *Service) AtRisk(ctx context.Context, ownerID string, days int) ([]types.AtRiskEntry, error) {
	snap, err := s.Dashboard(ctx, ownerID, days)
	if err != nil {
		return nil, err
	}
	return snap.AtRiskLearners, nil
}

// WeakQuestions returns the lowest-accuracy questions of an owner.
func (s *Service) WeakQuestions(ctx context.Context, ownerID string, days int) ([]types.WeakQuestionEntry, error) {
	snap, err := s.Dashboard(ctx, ownerID, days)
	if err != nil {
		return nil, err
	}
	return snap.WeakQuestions, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"timezone":    s.loc.String(),
	}

	if s.started {
		queueLen := s.ingestQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		metrics.UpdateQueueSize(queueLen)

		if counts, err := s.store.TotalCounts(ctx); err == nil {
			stats["progressEvents"] = counts.ProgressEvents
			stats["quizAttempts"] = counts.QuizAttempts
			stats["quizBanks"] = counts.QuizBanks
		}
	}

	return stats
}

// compute runs the engine over one window and records timing.
func (s *Service) compute(
	events []model.ProgressEvent,
	attempts []model.QuizAttempt,
	questions map[string][]model.QuestionDef,
	days int,
	reference time.Time,
) types.Snapshot {
	start := time.Now()
	snap := s.eng.Compute(events, attempts, questions, engine.Period{Days: days, Reference: reference})
	metrics.RecordSnapshotComputeLatency(float64(time.Since(start).Milliseconds()))
	return snap
}

// windowBounds returns the inclusive millisecond bounds of a window of the
// given day count ending at reference. The lower bound is midnight of the
// first day so partial first days never leak in.
func (s *Service) windowBounds(reference time.Time, days int) (int64, int64) {
	ref := reference.In(s.loc)
	first := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -(days - 1))
	return first.UnixMilli(), ref.UnixMilli()
}

func (s *Service) clampDays(days int) int {
	if days <= 0 {
		return s.periodDays
	}
	if days > s.maxPeriodDays {
		return s.maxPeriodDays
	}
	return days
}

func (s *Service) cachedSnapshot(key snapshotKey) (types.Snapshot, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.cache[key]
	if !ok || s.now().Sub(entry.computed) > s.cacheTTL {
		metrics.RecordSnapshotCacheMiss()
		return types.Snapshot{}, false
	}
	metrics.RecordSnapshotCacheHit()
	return entry.snap, true
}

func (s *Service) storeSnapshot(key snapshotKey, snap types.Snapshot) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache[key] = cachedSnapshot{snap: snap, computed: s.now()}
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// quizIDs collects the distinct quiz ids referenced by a set of attempts.
func quizIDs(attempts []model.QuizAttempt) []string {
	seen := make(map[string]struct{}, len(attempts))
	ids := make([]string, 0, len(attempts))
	for _, at := range attempts {
		if _, ok := seen[at.QuizID]; ok {
			continue
		}
		seen[at.QuizID] = struct{}{}
		ids = append(ids, at.QuizID)
	}
	sort.Strings(ids)
	return ids
}

// recentAttempts maps the newest attempts to their display rows.
func recentAttempts(attempts []model.QuizAttempt, limit int) []types.AttemptInfo {
	sorted := make([]model.QuizAttempt, len(attempts))
	copy(sorted, attempts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAtMs != sorted[j].CreatedAtMs {
			return sorted[i].CreatedAtMs > sorted[j].CreatedAtMs
		}
		return sorted[i].AttemptID < sorted[j].AttemptID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]types.AttemptInfo, len(sorted))
	for i, at := range sorted {
		info := types.AttemptInfo{
			QuizID:      at.QuizID,
			CreatedAtMs: at.CreatedAtMs,
		}
		if at.MaxScore > 0 {
			info.Scored = true
			info.ScorePct = at.Score / at.MaxScore * 100
		}
		rows[i] = info
	}
	return rows
}
