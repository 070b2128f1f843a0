// Package prediction is C10: submission intake, result listing, and the
// public leaderboard read model. Grounded on internal/session's
// store/service split — a thin Service wrapping a Store — generalized to
// this module's submission/result entities.
package prediction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"worldcup-predict/pkg/dtoerr"
)

// Submission is a user's group-stage prediction, stored as JSONB.
type Submission struct {
	ID        string
	UserID    string
	Payload   map[string]any
	CreatedAt time.Time
}

// Result is the scored outcome of exactly one submission.
type Result struct {
	ID           string
	SubmissionID string
	UserID       string
	TotalScore   int
	Details      json.RawMessage
	ProcessedAt  time.Time
}

// LeaderboardEntry is one ranked row of the public leaderboard.
type LeaderboardEntry struct {
	Rank        int
	UserID      string
	TotalScore  int
	ProcessedAt time.Time
}

// Store persists submissions and reads results. Implemented by
// store_postgres.go.
type Store interface {
	CreateSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, bool, error)
	ResultExists(ctx context.Context, submissionID string) (bool, error)
	InsertResult(ctx context.Context, r Result) (bool, error)
	ListResultsByUser(ctx context.Context, userID string) ([]Result, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// Metrics is the job-publication subset of internal/platform/metrics.Metrics.
// Service takes no Metrics and reports nothing through it.
type Metrics interface {
	IncrementJobsPublished()
}

// Service is C10: validate+persist a submission, and read results/
// leaderboard back out. Scoring itself is owned by C9/C12, not here — this
// package only stores the raw payload and reads what the worker wrote.
type Service struct {
	store Store
}

// New constructs a prediction Service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Submit implements spec.md §4.8: validate request shape, persist with the
// authenticated principal's id. Cross-field/group-size validation is
// deliberately deferred to the scoring layer (C9), not performed here.
func (s *Service) Submit(ctx context.Context, userID string, groups map[string]any) (string, error) {
	if userID == "" || len(groups) == 0 {
		return "", dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInvalidPredictionFormat)
	}
	sub := Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		Payload:   groups,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return "", dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	return sub.ID, nil
}

// ListResults returns userID's results ordered by processedAt descending,
// per spec.md §4.8's "surfaced in the user's result list ordered by
// processedAt descending".
func (s *Service) ListResults(ctx context.Context, userID string) ([]Result, error) {
	results, err := s.store.ListResultsByUser(ctx, userID)
	if err != nil {
		return nil, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	return results, nil
}

// Leaderboard returns the top `limit` scored results across all users.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	entries, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	return entries, nil
}
