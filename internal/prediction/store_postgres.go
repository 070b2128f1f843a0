package prediction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore is the lib/pq-backed Store implementation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub Submission) error {
	payload, err := json.Marshal(sub.Payload)
	if err != nil {
		return fmt.Errorf("prediction: marshal payload: %w", err)
	}
	const query = `INSERT INTO predictions (id, user_id, predict, created_at) VALUES ($1, $2, $3, $4)`
	_, err = s.db.ExecContext(ctx, query, sub.ID, sub.UserID, payload, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("prediction: create submission: %w", err)
	}
	return nil
}

// GetSubmission loads one submission by id, reporting found=false rather
// than an error when it doesn't exist (spec.md §4.7's "logically deleted"
// worker path treats a missing submission as a no-op, not a failure).
func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (Submission, bool, error) {
	const query = `SELECT id, user_id, predict, created_at FROM predictions WHERE id = $1`
	var sub Submission
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&sub.ID, &sub.UserID, &payload, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, false, nil
	}
	if err != nil {
		return Submission{}, false, fmt.Errorf("prediction: get submission: %w", err)
	}
	if err := json.Unmarshal(payload, &sub.Payload); err != nil {
		return Submission{}, false, fmt.Errorf("prediction: unmarshal submission payload: %w", err)
	}
	return sub, true, nil
}

// ResultExists backs the worker's idempotence check: a submission with a
// result row already scored is never reprocessed.
func (s *PostgresStore) ResultExists(ctx context.Context, submissionID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM results WHERE prediction_id = $1)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, submissionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("prediction: check result exists: %w", err)
	}
	return exists, nil
}

// InsertResult inserts r, relying on the unique constraint on prediction_id
// to serialize concurrent workers racing the same job: ON CONFLICT DO
// NOTHING makes a losing insert a no-op rather than an error, and the
// returned bool reports whether this call was the one that actually wrote
// the row (spec.md §5's "concurrent workers racing on the same job see
// exactly one insert succeed").
func (s *PostgresStore) InsertResult(ctx context.Context, r Result) (bool, error) {
	const query = `
		INSERT INTO results (id, prediction_id, user_id, total_score, details, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (prediction_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, r.ID, r.SubmissionID, r.UserID, r.TotalScore, r.Details, r.ProcessedAt)
	if err != nil {
		return false, fmt.Errorf("prediction: insert result: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("prediction: insert result rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *PostgresStore) ListResultsByUser(ctx context.Context, userID string) ([]Result, error) {
	const query = `
		SELECT id, prediction_id, user_id, total_score, details, processed_at
		FROM results WHERE user_id = $1 ORDER BY processed_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("prediction: list results by user: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.SubmissionID, &r.UserID, &r.TotalScore, &r.Details, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("prediction: scan result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prediction: scan result rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	const query = `
		SELECT user_id, total_score, processed_at
		FROM results ORDER BY total_score DESC, processed_at ASC LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("prediction: leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalScore, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("prediction: scan leaderboard row: %w", err)
		}
		e.Rank = rank
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prediction: scan leaderboard rows: %w", err)
	}
	return out, nil
}
