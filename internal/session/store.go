package session

import (
	"context"
	"time"
)

// Store persists Session rows. Implemented by store_postgres.go.
type Store interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	// ListRecentNonExpired returns the most recent non-expired sessions for
	// a user, ordered by createdAt descending, capped at limit. Used by
	// the fraud concurrent-session check (through FraudSessionLister).
	ListRecentNonExpired(ctx context.Context, userID string, limit int) ([]Session, error)
	// ListRecentCreated returns the most recently created non-expired
	// sessions system-wide, capped at limit — the candidate pool for
	// validateSession's/refreshSession's bounded DB-fallback scan, since a
	// bare token doesn't name the user it belongs to.
	ListRecentCreated(ctx context.Context, limit int) ([]Session, error)
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	UpdateAccessHash(ctx context.Context, id, newHash string) error
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
