// Package httpapi wires every domain service behind the HTTP endpoint
// table of spec.md §6, mounted as chi routers. Grounded on the teacher's
// internal/consent/handler/handler.go Register(chi.Router)-method shape and
// its shared.WriteError JSON-envelope helper, generalized from a single
// domain's routes to this module's auth/prediction/admin surface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"worldcup-predict/internal/platform/requestcontext"
	"worldcup-predict/pkg/dtoerr"
	"worldcup-predict/pkg/sentinel"
)

// userIDFromContext reads the authenticated principal's id, attached by
// internal/platform/middleware/auth.RequireAuth.
func userIDFromContext(ctx context.Context) string {
	return requestcontext.UserID(ctx)
}

// writeJSON encodes body as the response, setting Content-Type and status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error to the JSON error envelope every endpoint
// in spec.md §6 shares: {"error": CODE, "message": ...}.
// sentinel.ErrNotFound, which services may return directly rather than
// through dtoerr, maps to 404 NOT_FOUND; other unclassified errors map to a
// safe 500 default rather than leaking internal detail.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND", "message": "not found"})
		return
	}
	derr, ok := dtoerr.As(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   dtoerr.CodeInternal,
			"message": "internal error",
		})
		return
	}
	writeJSON(w, statusForKind(derr.Kind), map[string]string{"error": derr.Code, "message": derr.Message})
}

func statusForKind(kind dtoerr.Kind) int {
	switch kind {
	case dtoerr.KindValidation:
		return http.StatusBadRequest
	case dtoerr.KindAuthentication:
		return http.StatusUnauthorized
	case dtoerr.KindAuthorization:
		return http.StatusForbidden
	case dtoerr.KindRateLimit:
		return http.StatusTooManyRequests
	case dtoerr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
