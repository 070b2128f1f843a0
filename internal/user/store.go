package user

import "context"

// Store persists User rows. Implemented by store_postgres.go.
type Store interface {
	// UpsertByPhone creates a user row for normalizedPhone if one doesn't
	// exist, or touches lastLoginAt if it does, returning the user id and
	// whether this call created it.
	UpsertByPhone(ctx context.Context, normalizedPhone string) (userID string, isNew bool, err error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByPhone(ctx context.Context, normalizedPhone string) (User, error)
}
