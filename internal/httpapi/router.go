package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"worldcup-predict/internal/platform/middleware/admin"
	"worldcup-predict/internal/platform/middleware/auth"
	"worldcup-predict/internal/platform/middleware/clientmeta"
	"worldcup-predict/internal/platform/middleware/requestid"
	"worldcup-predict/internal/platform/middleware/requesttime"
)

// requestTimeout bounds how long any single request may run, mirroring the
// teacher Register method's intended use of a timeout middleware (the
// teacher's own middleware.Timeout reference was never implemented, so this
// uses chi's own built-in equivalent instead of inventing one).
const requestTimeout = 30 * time.Second

// NewRouter assembles the full HTTP surface of spec.md §6: the public
// auth/prediction routes, the admin-gated dispatcher routes, and the
// shared middleware stack every request passes through. Grounded on the
// teacher's internal/consent/handler/handler.go Register(chi.Router)
// pattern, generalized from one handler's routes to this module's full
// domain set.
func NewRouter(
	authHandler *AuthHandler,
	predictionHandler *PredictionHandler,
	adminHandler *AdminHandler,
	validator auth.Validator,
	adminChecker admin.Checker,
	logger *slog.Logger,
	enforceIPMatch bool,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(clientmeta.Middleware)

	requireAuth := auth.RequireAuth(validator, logger, enforceIPMatch)
	requireAdmin := admin.RequireAdmin(adminChecker, logger)

	r.Get("/healthz", handleHealthz)

	authHandler.Register(r, requireAuth)
	predictionHandler.Register(r, requireAuth)
	adminHandler.Register(r, requireAuth, requireAdmin)

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
