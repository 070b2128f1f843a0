// Package requestid assigns a request identifier to every inbound HTTP
// request, echoing a client-supplied X-Request-Id when present and
// generating one otherwise, following the same echo-or-generate shape as
// the teacher corpus's request-ID middlewares.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"worldcup-predict/internal/platform/requestcontext"
)

const Header = "X-Request-Id"

// Middleware stamps the request context with a request ID and mirrors it
// back on the response for client-side correlation.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
