// Package dispatch is C11: the admin-triggered scan that finds every
// submission with no corresponding result row and queues one job per
// submission for the worker (C12) to score. Grounded on the
// scan-then-publish shape of the teacher's
// internal/ratelimit/store/authlockout/store_postgres.go ResetFailureCount
// (read-then-bulk-act under a single query) generalized to a streaming
// publish loop, with progress logging borrowed from the teacher's
// pkg/platform/audit/worker/worker.go batch-drain loop.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"worldcup-predict/pkg/dtoerr"
)

const (
	statsTotalKey     = "stats:total"
	statsProcessedKey = "stats:processed"

	progressLogInterval = 100
)

// Job is the unit of work queued for a worker: a submission awaiting
// scoring plus the user it belongs to.
type Job struct {
	SubmissionID string
	UserID       string
}

// jobMessage is the wire shape published to the broker, per spec.md §6's
// "message body is UTF-8 JSON {"submissionId":"...","userId":"..."}".
type jobMessage struct {
	SubmissionID string `json:"submissionId"`
	UserID       string `json:"userId"`
}

// Store finds submissions with no result row yet (the outer-anti-join scan
// spec.md §4.7 names). Implemented by store_postgres.go.
type Store interface {
	PendingSubmissions(ctx context.Context) ([]Job, error)
}

// Cache is the subset of the cache client the dispatcher needs to
// initialize and read the monotonic progress counters.
type Cache interface {
	Exists(ctx context.Context, key string) (bool, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
}

// Status is the total/processed/pending/queueDepth snapshot spec.md §6's
// processing-status endpoint reports.
type Status struct {
	Total      int
	Processed  int
	Pending    int
	QueueDepth int
}

// Publisher is the subset of internal/platform/broker.Client the
// dispatcher needs to queue jobs and report the live queue depth
// spec.md §6's processing-status endpoint surfaces.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	QueueMessageCount(ctx context.Context) (int, error)
}

// Metrics is the subset of internal/platform/metrics.Metrics the
// dispatcher reports through.
type Metrics interface {
	IncrementJobsPublished()
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option { return func(s *Service) { s.logger = logger } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }

// Service is C11: the dispatcher. It owns no state of its own beyond the
// stats:total/stats:processed cache counters, which are never reset
// automatically (spec.md §4.7).
type Service struct {
	store     Store
	cache     Cache
	publisher Publisher
	logger    *slog.Logger
	metrics   Metrics
}

// New constructs a dispatch Service.
func New(store Store, cache Cache, publisher Publisher, opts ...Option) *Service {
	s := &Service{store: store, cache: cache, publisher: publisher, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch implements spec.md §4.7's dispatcher algorithm: scan for
// unscored submissions, initialize the progress counters the first time
// they're seen, publish one job per submission with progress logging every
// progressLogInterval messages, and return the count queued.
func (s *Service) Dispatch(ctx context.Context) (int, error) {
	jobs, err := s.store.PendingSubmissions(ctx)
	if err != nil {
		return 0, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	if err := s.ensureCounters(ctx, len(jobs)); err != nil {
		return 0, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	queued := 0
	for _, job := range jobs {
		body, err := json.Marshal(jobMessage{SubmissionID: job.SubmissionID, UserID: job.UserID})
		if err != nil {
			return queued, fmt.Errorf("dispatch: marshal job: %w", err)
		}
		if err := s.publisher.Publish(ctx, body); err != nil {
			return queued, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
		}
		queued++
		if s.metrics != nil {
			s.metrics.IncrementJobsPublished()
		}
		if queued%progressLogInterval == 0 {
			s.logger.InfoContext(ctx, "dispatch: progress", "queued", queued, "total", len(jobs))
		}
	}

	s.logger.InfoContext(ctx, "dispatch: run complete", "queued", queued, "total", len(jobs))
	return queued, nil
}

// ensureCounters initializes stats:total/stats:processed to scanSize/0 the
// first time a scan runs; subsequent runs leave existing counters alone so
// they keep accumulating across repeated admin triggers, per spec.md §4.7's
// "monotonic counters; never reset automatically".
func (s *Service) ensureCounters(ctx context.Context, scanSize int) error {
	exists, err := s.cache.Exists(ctx, statsTotalKey)
	if err != nil {
		return fmt.Errorf("dispatch: check stats:total: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.cache.SetEx(ctx, statsTotalKey, fmt.Sprintf("%d", scanSize), 0); err != nil {
		return fmt.Errorf("dispatch: init stats:total: %w", err)
	}
	if err := s.cache.SetEx(ctx, statsProcessedKey, "0", 0); err != nil {
		return fmt.Errorf("dispatch: init stats:processed: %w", err)
	}
	return nil
}

// Status reads the current total/processed counters for spec.md §6's
// processing-status endpoint. Counters that were never initialized (no
// dispatch run yet) read back as zero.
func (s *Service) Status(ctx context.Context) (Status, error) {
	total, err := s.readCounter(ctx, statsTotalKey)
	if err != nil {
		return Status{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	processed, err := s.readCounter(ctx, statsProcessedKey)
	if err != nil {
		return Status{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	queueDepth, err := s.publisher.QueueMessageCount(ctx)
	if err != nil {
		return Status{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	return Status{Total: total, Processed: processed, Pending: total - processed, QueueDepth: queueDepth}, nil
}

func (s *Service) readCounter(ctx context.Context, key string) (int, error) {
	raw, err := s.cache.GetString(ctx, key)
	if err != nil {
		return 0, nil
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, nil
	}
	return n, nil
}
