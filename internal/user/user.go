// Package user owns the users table: upsert-by-phone on OTP verification,
// and the lookups internal/httpapi and internal/platform/middleware/admin
// need. Grounded on the teacher's internal/auth/store/user package shape
// (FindByID/FindByEmail-style lookups over a sentinel.ErrNotFound contract),
// generalized from email-identified accounts to phone-identified ones.
package user

import "time"

// User is an authenticated principal identified by phone number.
type User struct {
	ID          string
	Phone       string
	IsAdmin     bool
	CreatedAt   time.Time
	LastLoginAt time.Time
}
