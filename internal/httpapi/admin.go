package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"worldcup-predict/internal/dispatch"
)

// Dispatcher is the subset of internal/dispatch.Service the admin handler
// calls.
type Dispatcher interface {
	Dispatch(ctx context.Context) (int, error)
	Status(ctx context.Context) (dispatch.Status, error)
}

// AdminHandler implements spec.md §6's admin-gated dispatcher endpoints.
type AdminHandler struct {
	dispatcher   Dispatcher
	asyncEnabled bool
}

// NewAdminHandler constructs the admin handler. asyncEnabled mirrors
// ENABLE_ASYNC_PROCESSING and is echoed back as trigger-prediction-process's
// "mode" field — this module always queues through the broker for the
// worker to consume, so the field records configuration intent rather than
// a second, synchronous scoring code path.
func NewAdminHandler(dispatcher Dispatcher, asyncEnabled bool) *AdminHandler {
	return &AdminHandler{dispatcher: dispatcher, asyncEnabled: asyncEnabled}
}

// Register mounts the admin routes on r, gated behind requireAuth then
// requireAdmin, in that order — requireAdmin reads the authenticated
// principal requireAuth attaches to the context.
func (h *AdminHandler) Register(r chi.Router, requireAuth, requireAdmin func(http.Handler) http.Handler) {
	r.Group(func(protected chi.Router) {
		protected.Use(requireAuth, requireAdmin)
		protected.Post("/prediction/admin/trigger-prediction-process", h.handleTrigger)
		protected.Get("/prediction/admin/processing-status", h.handleStatus)
	})
}

func (h *AdminHandler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	queued, err := h.dispatcher.Dispatch(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	mode := "sync"
	if h.asyncEnabled {
		mode = "async"
	}
	writeJSON(w, http.StatusOK, map[string]any{"queued": queued, "total": queued, "mode": mode})
}

func (h *AdminHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.dispatcher.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      status.Total,
		"processed":  status.Processed,
		"pending":    status.Pending,
		"queueDepth": status.QueueDepth,
	})
}
