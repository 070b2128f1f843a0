// Package session implements C4 (session cache) and C7 (session service):
// session creation with paired access/refresh tokens, cache-then-DB
// validation, access-token refresh, deletion, and scheduled cleanup of
// expired rows. Grounded on the teacher's internal/auth/service/service.go
// functional-façade shape and internal/auth/service/token_flow.go's
// transactional artifact-generation pattern, adapted from JWT claims to the
// opaque bcrypt-hashed tokens of internal/token.
package session

import "time"

// Session is the persisted session row (spec.md §3's Session entity).
type Session struct {
	ID          string
	UserID      string
	AccessHash  string
	RefreshHash string
	UserAgent   string
	Address     string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (s Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
