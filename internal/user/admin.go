package user

import "context"

// AdminLookup satisfies internal/platform/middleware/admin.Checker by
// resolving an authenticated user id to its stored IsAdmin flag. Kept
// decoupled from the admin package (duck-typed, no import) the same way
// internal/session.FraudChecker is duck-typed against internal/fraud.
type AdminLookup struct {
	store Store
}

func NewAdminLookup(store Store) AdminLookup {
	return AdminLookup{store: store}
}

func (l AdminLookup) IsAdmin(ctx context.Context, userID string) (bool, error) {
	u, err := l.store.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}
