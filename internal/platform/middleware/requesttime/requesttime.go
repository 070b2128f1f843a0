// Package requesttime provides middleware that captures a single "now" for
// the lifetime of an HTTP request. Code that reads requestcontext.Now (such
// as internal/fraud's concurrent-session window) sees that one timestamp;
// internal/otp and internal/session use their own injected clock instead.
package requesttime

import (
	"net/http"
	"time"

	"worldcup-predict/internal/platform/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context for consistent time references throughout.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		ctx := requestcontext.WithTime(r.Context(), now)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
