package dispatch

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore is the lib/pq-backed Store implementation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// PendingSubmissions returns every submission with no corresponding result
// row, oldest first, via a LEFT JOIN / IS NULL outer-anti-join.
func (s *PostgresStore) PendingSubmissions(ctx context.Context) ([]Job, error) {
	const query = `
		SELECT p.id, p.user_id
		FROM predictions p
		LEFT JOIN results r ON r.prediction_id = p.id
		WHERE r.id IS NULL
		ORDER BY p.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dispatch: scan pending submissions: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.SubmissionID, &j.UserID); err != nil {
			return nil, fmt.Errorf("dispatch: scan pending submission row: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispatch: scan pending submission rows: %w", err)
	}
	return out, nil
}
