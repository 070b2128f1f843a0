// Package admin is the admin-only gate for the dispatcher-trigger and
// processing-status endpoints (spec.md §6's "yes (+admin)" routes). It runs
// after auth.RequireAuth, so the authenticated user ID is already in
// context; it resolves whether that user is an administrator and rejects
// with 403 otherwise. Grounded on the teacher's
// pkg/platform/middleware/admin/admin.go shape, adapted from a static
// shared-secret header check to an authenticated-principal admin lookup,
// since this system has no separate admin credential — admin status is a
// property of a user's phone number (ADMIN_PHONES config).
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"worldcup-predict/internal/platform/requestcontext"
)

// Checker reports whether the given authenticated user is an administrator.
type Checker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin returns middleware enforcing admin-only access. Must be
// mounted after auth.RequireAuth on the same route.
func RequireAdmin(checker Checker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)
			userID := requestcontext.UserID(ctx)

			isAdmin, err := checker.IsAdmin(ctx, userID)
			if err != nil {
				logger.ErrorContext(ctx, "admin check failed", "error", err, "request_id", requestID)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_error","message":"failed to resolve admin status"}`))
				return
			}
			if !isAdmin {
				logger.WarnContext(ctx, "admin access denied", "request_id", requestID, "user_id", userID)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden_admin_only","message":"admin access required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
