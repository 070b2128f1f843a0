package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"worldcup-predict/pkg/sentinel"
)

// AdminChecker reports whether a phone number belongs to a configured admin,
// so newly-created users get their IsAdmin flag set at insert time rather
// than recomputed on every request.
type AdminChecker func(normalizedPhone string) bool

// PostgresStore is the lib/pq-backed Store implementation, grounded on
// internal/session's store_postgres.go shape: injected Clock, sql.DB over
// context.Context, sentinel.ErrNotFound mapping on sql.ErrNoRows.
type PostgresStore struct {
	db      *sql.DB
	clock   func() time.Time
	isAdmin AdminChecker
}

// PostgresStoreOption configures a PostgresStore.
type PostgresStoreOption func(*PostgresStore)

func WithClock(clock func() time.Time) PostgresStoreOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAdminChecker wires the ADMIN_PHONES membership test applied to newly
// created users.
func WithAdminChecker(check AdminChecker) PostgresStoreOption {
	return func(s *PostgresStore) {
		if check != nil {
			s.isAdmin = check
		}
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *sql.DB, opts ...PostgresStoreOption) *PostgresStore {
	s := &PostgresStore{
		db:      db,
		clock:   time.Now,
		isAdmin: func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) UpsertByPhone(ctx context.Context, normalizedPhone string) (string, bool, error) {
	now := s.clock()
	newID := uuid.NewString()
	const query = `
		INSERT INTO users (id, phone, is_admin, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (phone) DO UPDATE SET last_login_at = $4
		RETURNING id, (xmax = 0) AS inserted
	`
	var id string
	var inserted bool
	err := s.db.QueryRowContext(ctx, query, newID, normalizedPhone, s.isAdmin(normalizedPhone), now).Scan(&id, &inserted)
	if err != nil {
		return "", false, fmt.Errorf("user: upsert by phone: %w", err)
	}
	return id, inserted, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	const query = `SELECT id, phone, is_admin, created_at, last_login_at FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByPhone(ctx context.Context, normalizedPhone string) (User, error) {
	const query = `SELECT id, phone, is_admin, created_at, last_login_at FROM users WHERE phone = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, normalizedPhone))
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Phone, &u.IsAdmin, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user: scan: %w", err)
	}
	return u, nil
}
