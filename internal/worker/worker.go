// Package worker is C12: the per-message scoring job handler plugged into
// internal/platform/broker.Client.Consume. It is the consumer-side half of
// the dispatcher/worker pair spec.md §4.7 describes; the dispatcher (C11)
// publishes, this package scores. Grounded on the teacher's
// pkg/platform/audit/consumer/router.go Router.Handle (decode, dispatch,
// log-and-return-error-for-retry shape) generalized from audit-event
// routing to scoring-job processing, with the idempotence-then-load-then-
// act sequencing grounded on internal/ratelimit/store/authlockout's
// check-then-act transaction pattern.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"worldcup-predict/internal/prediction"
	"worldcup-predict/internal/scoring"
	"worldcup-predict/pkg/dtoerr"
)

// jobMessage mirrors internal/dispatch's wire shape: UTF-8 JSON
// {"submissionId":"...","userId":"..."} per spec.md §6.
type jobMessage struct {
	SubmissionID string `json:"submissionId"`
	UserID       string `json:"userId"`
}

// SubmissionLoader loads a submission by id, reporting found=false rather
// than an error when it no longer exists (the "logically deleted" case).
// internal/prediction.PostgresStore satisfies this directly.
type SubmissionLoader interface {
	GetSubmission(ctx context.Context, id string) (prediction.Submission, bool, error)
}

// ResultStore is the idempotence check plus the single insert that commits
// a scored result. internal/prediction.PostgresStore satisfies this
// directly.
type ResultStore interface {
	ResultExists(ctx context.Context, submissionID string) (bool, error)
	InsertResult(ctx context.Context, r prediction.Result) (bool, error)
}

// TruthProvider supplies the ground-truth group partition, cache-backed
// with DB fallback (internal/teams.Service satisfies this).
type TruthProvider interface {
	Partition(ctx context.Context) (scoring.GroupAssignment, error)
}

// Cache is the subset of the cache client the worker needs to advance the
// dispatcher's processed counter.
type Cache interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Metrics is the subset of internal/platform/metrics.Metrics the worker
// reports through.
type Metrics interface {
	RecordJobOutcome(outcome string)
	ObserveScoringDuration(seconds float64)
}

const statsProcessedKey = "stats:processed"

const (
	outcomeScored    = "scored"
	outcomeDuplicate = "duplicate"
	outcomeMissing   = "missing_submission"
)

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option  { return func(h *Handler) { h.logger = logger } }
func WithMetrics(m Metrics) Option           { return func(h *Handler) { h.metrics = m } }
func WithScoringConfig(cfg scoring.Config) Option {
	return func(h *Handler) { h.scoringConfig = cfg }
}
func WithClock(clock func() time.Time) Option { return func(h *Handler) { h.clock = clock } }

// Handler scores one job at a time. Its Handle method is the
// internal/platform/broker.Handler passed to Client.Consume.
type Handler struct {
	submissions   SubmissionLoader
	results       ResultStore
	truth         TruthProvider
	cache         Cache
	scoringConfig scoring.Config
	logger        *slog.Logger
	metrics       Metrics
	clock         func() time.Time
}

// New constructs a job Handler.
func New(submissions SubmissionLoader, results ResultStore, truth TruthProvider, cache Cache, opts ...Option) *Handler {
	h := &Handler{
		submissions:   submissions,
		results:       results,
		truth:         truth,
		cache:         cache,
		scoringConfig: scoring.DefaultConfig,
		logger:        slog.Default(),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements spec.md §4.7's per-job worker algorithm. A returned
// error propagates to the broker's retry/DLQ policy; every terminal
// outcome short of an actual processing failure (duplicate, missing
// submission) returns nil so the delivery is acked rather than retried.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	start := h.clock()

	var job jobMessage
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("worker: decode job: %w", err)
	}
	if job.SubmissionID == "" || job.UserID == "" {
		return fmt.Errorf("worker: job missing submissionId or userId")
	}

	exists, err := h.results.ResultExists(ctx, job.SubmissionID)
	if err != nil {
		return dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	if exists {
		h.recordOutcome(outcomeDuplicate, start)
		return nil
	}

	submission, found, err := h.submissions.GetSubmission(ctx, job.SubmissionID)
	if err != nil {
		return dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	if !found {
		h.logger.InfoContext(ctx, "worker: submission no longer exists, skipping", "submissionId", job.SubmissionID)
		h.recordOutcome(outcomeMissing, start)
		return nil
	}

	truth, err := h.truth.Partition(ctx)
	if err != nil {
		return dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	userAssignment := scoring.Flatten(toGroupsRaw(submission.Payload))
	outcome := scoring.Score(h.scoringConfig, userAssignment, truth)

	details, err := json.Marshal(buildDetails(outcome))
	if err != nil {
		return fmt.Errorf("worker: marshal result details: %w", err)
	}

	result := prediction.Result{
		ID:           uuid.NewString(),
		SubmissionID: submission.ID,
		UserID:       submission.UserID,
		TotalScore:   outcome.Score,
		Details:      details,
		ProcessedAt:  h.clock(),
	}
	if _, err := h.results.InsertResult(ctx, result); err != nil {
		return dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	if _, err := h.cache.Incr(ctx, statsProcessedKey); err != nil {
		h.logger.WarnContext(ctx, "worker: increment stats:processed failed", "error", err)
	}

	h.recordOutcome(outcomeScored, start)
	h.logger.InfoContext(ctx, "worker: scored submission",
		"submissionId", submission.ID, "rule", outcome.Rule, "score", outcome.Score)
	return nil
}

func (h *Handler) recordOutcome(outcome string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordJobOutcome(outcome)
	h.metrics.ObserveScoringDuration(h.clock().Sub(start).Seconds())
}

// resultDetails is the persisted `details` JSONB shape, preserving the
// legacy field names spec.md §4.7 names explicitly alongside the rule's
// own data.
type resultDetails struct {
	Rule             scoring.RuleID `json:"rule"`
	Score            int            `json:"score"`
	ScoringBreakdown int            `json:"scoringBreakdown"`
	CorrectGroups    []string       `json:"correctGroups,omitempty"`
	CorrectTeams     int            `json:"correctTeams,omitempty"`
	IranGroupCorrect bool           `json:"iranGroupCorrect"`
	PerfectGroups    []string       `json:"perfectGroups,omitempty"`
	Misplaced        []string       `json:"misplaced,omitempty"`
	Label            string         `json:"label,omitempty"`
	Teams            []string       `json:"teams,omitempty"`
}

// ruleTag is the numeric rule tag spec.md §4.7 requires scoringBreakdown to
// carry, fixed to the rule table's priority order (§4.6).
var ruleTag = map[scoring.RuleID]int{
	scoring.RuleAllCorrect:       1,
	scoring.RuleTwoMisplaced:     2,
	scoring.RuleThreeMisplaced:   3,
	scoring.RuleIranGroupCorrect: 4,
	scoring.RulePerfectGroup:     5,
	scoring.RuleThreeCorrect:     6,
	scoring.RuleNoMatch:          7,
}

// toGroupsRaw coerces a stored submission's JSONB-decoded payload (each
// group value may have arrived as []any, or as a single bare entry if the
// caller submitted one-team groups) into the shape scoring.Flatten expects.
func toGroupsRaw(payload map[string]any) map[string][]any {
	raw := make(map[string][]any, len(payload))
	for label, v := range payload {
		if items, ok := v.([]any); ok {
			raw[label] = items
			continue
		}
		raw[label] = []any{v}
	}
	return raw
}

func buildDetails(r scoring.Result) resultDetails {
	return resultDetails{
		Rule:             r.Rule,
		Score:            r.Score,
		ScoringBreakdown: ruleTag[r.Rule],
		CorrectGroups:    r.PerfectGroups,
		CorrectTeams:     r.CorrectlyPlaced,
		IranGroupCorrect: r.Rule == scoring.RuleIranGroupCorrect,
		PerfectGroups:    r.PerfectGroups,
		Misplaced:        r.Misplaced,
		Label:            r.Label,
		Teams:            r.Teams,
	}
}
