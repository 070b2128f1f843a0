package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"worldcup-predict/internal/prediction"
	"worldcup-predict/internal/teams"
	"worldcup-predict/pkg/dtoerr"
)

const defaultLeaderboardLimit = 50

// TeamsService is the subset of internal/teams.Service the prediction
// handler calls.
type TeamsService interface {
	All(ctx context.Context) ([]teams.Entity, error)
}

// PredictionService is the subset of internal/prediction.Service the
// handler calls.
type PredictionService interface {
	Submit(ctx context.Context, userID string, groups map[string]any) (string, error)
	ListResults(ctx context.Context, userID string) ([]prediction.Result, error)
	Leaderboard(ctx context.Context, limit int) ([]prediction.LeaderboardEntry, error)
}

// PredictionHandler implements spec.md §6's /prediction/* endpoint group.
type PredictionHandler struct {
	teams       TeamsService
	predictions PredictionService
}

// NewPredictionHandler constructs the prediction handler.
func NewPredictionHandler(teamsSvc TeamsService, predictionsSvc PredictionService) *PredictionHandler {
	return &PredictionHandler{teams: teamsSvc, predictions: predictionsSvc}
}

// Register mounts the prediction routes on r. /prediction/teams and
// /prediction/leaderboard are marked "Auth: no" in spec.md §6 — the
// leaderboard is explicitly publicly readable per spec.md §1 — so only
// /prediction and /prediction/result sit behind requireAuth.
func (h *PredictionHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/prediction/teams", h.handleListTeams)
	r.Get("/prediction/leaderboard", h.handleLeaderboard)

	r.Group(func(protected chi.Router) {
		protected.Use(requireAuth)
		protected.Post("/prediction", h.handleSubmit)
		protected.Get("/prediction/result", h.handleResults)
	})
}

func (h *PredictionHandler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	entities, err := h.teams.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		out = append(out, map[string]any{
			"id":      e.ID,
			"faName":  e.LocalName,
			"engName": e.EnglishName,
			"order":   e.Order,
			"group":   e.Group,
			"flag":    e.Flag,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": out})
}

type submitRequest struct {
	Groups map[string]any `json:"groups"`
}

func (h *PredictionHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInvalidPredictionFormat))
		return
	}

	submissionID, err := h.predictions.Submit(ctx, userID, req.Groups)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"submissionId": submissionID})
}

func (h *PredictionHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	results, err := h.predictions.ListResults(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(results))
	for _, res := range results {
		out = append(out, map[string]any{
			"submissionId": res.SubmissionID,
			"totalScore":   res.TotalScore,
			"details":      json.RawMessage(res.Details),
			"processedAt":  res.ProcessedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (h *PredictionHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.predictions.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"rank":        e.Rank,
			"userId":      e.UserID,
			"totalScore":  e.TotalScore,
			"processedAt": e.ProcessedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": out})
}
