// Package auth is the C8 auth middleware: extract the bearer token, validate
// the session, optionally cross-check the caller's address against the
// session's recorded address, and attach the authenticated principal to the
// request context. Grounded on the teacher's
// pkg/platform/middleware/auth/auth.go bearer-extraction/JSON-error shape,
// adapted from JWT-claim validation to opaque-token session validation
// (internal/session.Service.ValidateSession).
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"worldcup-predict/internal/platform/requestcontext"
	"worldcup-predict/pkg/dtoerr"
)

// Session is the subset of session state the middleware needs to attach to
// the request context, and to run its own address/agent cross-check, once a
// token has been validated.
type Session struct {
	ID        string
	UserID    string
	Address   string
	UserAgent string
}

// Validator validates a presented bearer token and returns the session it
// belongs to, or an error on failure (sentinel.ErrInvalidState for a
// malformed token, sentinel.ErrNotFound otherwise). Implemented by
// internal/session.Service.
type Validator interface {
	ValidateSession(ctx context.Context, token string) (Session, error)
}

// writeJSONError writes a JSON error body matching pkg/dtoerr's shape.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","message":"%s"}`, code, message))
}

// RequireAuth returns middleware that enforces bearer-token session auth.
// When enforceIPMatch is true, a caller whose address doesn't match the
// session's recorded address is rejected with SESSION_IP_MISMATCH; a
// mismatched User-Agent is logged but never blocks the request, per
// spec.md's "optional address/agent cross-check".
func RequireAuth(validator Validator, logger *slog.Logger, enforceIPMatch bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, dtoerr.CodeMissingAccessToken, "missing or malformed Authorization header")
				return
			}

			clientIP := requestcontext.ClientIP(ctx)
			userAgent := requestcontext.UserAgent(ctx)

			sess, err := validator.ValidateSession(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "session validation failed",
					"error", err, "request_id", requestID)
				writeJSONError(w, http.StatusUnauthorized, dtoerr.CodeInvalidOrExpired, "invalid or expired session token")
				return
			}

			if sess.UserAgent != "" && sess.UserAgent != userAgent {
				logger.InfoContext(ctx, "session user-agent mismatch",
					"request_id", requestID, "session_id", sess.ID)
			}
			if enforceIPMatch && sess.Address != "" && sess.Address != clientIP {
				logger.WarnContext(ctx, "session address mismatch",
					"request_id", requestID, "session_id", sess.ID, "client_ip", clientIP)
				writeJSONError(w, http.StatusUnauthorized, dtoerr.CodeSessionIPMismatch, "client address does not match session")
				return
			}

			ctx = requestcontext.WithUserID(ctx, sess.UserID)
			ctx = requestcontext.WithSessionID(ctx, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
