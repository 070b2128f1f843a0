package session

import (
	"context"
	"time"

	"worldcup-predict/internal/fraud"
)

// FraudSessionLister adapts Store to internal/fraud.SessionLister, the one
// read fraud's concurrent-session check needs. It lives here rather than in
// internal/fraud itself because fraud must not import session (fraud is the
// lower-level, session-agnostic package); session already depends on
// nothing from fraud beyond the small FraudChecker interface it declares
// for itself, so the dependency direction this adapter adds is session →
// fraud, not the reverse.
type FraudSessionLister struct {
	store Store
}

// NewFraudSessionLister constructs the adapter.
func NewFraudSessionLister(store Store) *FraudSessionLister {
	return &FraudSessionLister{store: store}
}

// ListRecentByUser satisfies fraud.SessionLister. It reads up to limit of
// the user's most recent non-expired sessions via ListRecentNonExpired and
// drops those created before since.
func (l *FraudSessionLister) ListRecentByUser(ctx context.Context, userID string, limit int, since time.Time) ([]fraud.SessionRef, error) {
	sessions, err := l.store.ListRecentNonExpired(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	refs := make([]fraud.SessionRef, 0, len(sessions))
	for _, s := range sessions {
		if s.CreatedAt.Before(since) {
			continue
		}
		refs = append(refs, fraud.SessionRef{Address: s.Address})
	}
	return refs, nil
}
