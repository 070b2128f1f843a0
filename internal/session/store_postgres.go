package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"worldcup-predict/pkg/sentinel"
)

// PostgresStore is the lib/pq-backed Store implementation, grounded on the
// teacher's internal/auth/store/revocation/postgres.go — same injected
// Clock for testability, same sql.DB-over-context.Context shape.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresStoreOption configures a PostgresStore.
type PostgresStoreOption func(*PostgresStore)

// WithClock overrides the store's clock, for deterministic tests.
func WithClock(clock func() time.Time) PostgresStoreOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *sql.DB, opts ...PostgresStoreOption) *PostgresStore {
	s := &PostgresStore{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) Create(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO sessions (id, user_id, token_hash, refresh_token_hash, user_agent, ip_address, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.UserID, sess.AccessHash, sess.RefreshHash, sess.UserAgent, sess.Address, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("session: create: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Session, error) {
	const query = `
		SELECT id, user_id, token_hash, refresh_token_hash, user_agent, ip_address, created_at, expires_at
		FROM sessions WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanSession(row)
}

func (s *PostgresStore) ListRecentNonExpired(ctx context.Context, userID string, limit int) ([]Session, error) {
	const query = `
		SELECT id, user_id, token_hash, refresh_token_hash, user_agent, ip_address, created_at, expires_at
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, s.clock(), limit)
	if err != nil {
		return nil, fmt.Errorf("session: list recent non-expired: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *PostgresStore) ListRecentCreated(ctx context.Context, limit int) ([]Session, error) {
	const query = `
		SELECT id, user_id, token_hash, refresh_token_hash, user_agent, ip_address, created_at, expires_at
		FROM sessions
		WHERE expires_at > $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, s.clock(), limit)
	if err != nil {
		return nil, fmt.Errorf("session: list recent created: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	const query = `
		SELECT id, user_id, token_hash, refresh_token_hash, user_agent, ip_address, created_at, expires_at
		FROM sessions WHERE user_id = $1 ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("session: list by user: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *PostgresStore) UpdateAccessHash(ctx context.Context, id, newHash string) error {
	const query = `UPDATE sessions SET token_hash = $1 WHERE id = $2`
	res, err := s.db.ExecContext(ctx, query, newHash, id)
	if err != nil {
		return fmt.Errorf("session: update access hash: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("session: delete all for user: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpired implements the scheduled-cleanup half of C7: delete every
// session whose expiresAt has passed, returning the count deleted.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("session: delete expired: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var refreshHash sql.NullString
	var userAgent, address sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.AccessHash, &refreshHash, &userAgent, &address, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: scan: %w", err)
	}
	s.RefreshHash = refreshHash.String
	s.UserAgent = userAgent.String
	s.Address = address.String
	return s, nil
}

func scanSessions(rows *sql.Rows) ([]Session, error) {
	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: scan rows: %w", err)
	}
	return out, nil
}
