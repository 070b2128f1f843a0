// Package clientmeta stamps the request context with the caller's address
// and user agent, ahead of auth/fraud code that reads them back out through
// internal/platform/requestcontext. Grounded on the teacher's
// pkg/platform/middleware/metadata.ClientMetadata middleware, same
// X-Forwarded-For/X-Real-IP/RemoteAddr fallback chain.
package clientmeta

import (
	"net/http"
	"strings"

	"worldcup-predict/internal/platform/requestcontext"
)

// Middleware extracts the client IP and User-Agent from the request and
// attaches them to the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP extracts the real client IP, preferring proxy headers over the
// raw connection address since this service is expected to sit behind a
// load balancer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
