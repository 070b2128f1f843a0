package teams

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore is the lib/pq-backed Store implementation, grounded on the
// same sql.DB-over-context.Context shape as internal/session/store_postgres.go.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Entity, error) {
	const query = `SELECT id, fa_name, eng_name, "order", "group", flag FROM teams ORDER BY "order"`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("teams: list all: %w", err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.LocalName, &e.EnglishName, &e.Order, &e.Group, &e.Flag); err != nil {
			return nil, fmt.Errorf("teams: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("teams: scan rows: %w", err)
	}
	return out, nil
}
