package testutil

import (
	"context"
	"net/http"

	"worldcup-predict/internal/platform/requestcontext"
)

// WithUserID adds a user ID to the request context, simulating what
// auth.RequireAuth would do for an authenticated request.
func WithUserID(req *http.Request, userID string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

// WithSessionID adds a session ID to the request context.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	ctx := requestcontext.WithSessionID(req.Context(), sessionID)
	return req.WithContext(ctx)
}

// WithAuth adds both user ID and session ID to the request context, the
// typical state for an authenticated request in handler tests.
func WithAuth(req *http.Request, userID, sessionID string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = requestcontext.WithUserID(ctx, userID)
	}
	if sessionID != "" {
		ctx = requestcontext.WithSessionID(ctx, sessionID)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
