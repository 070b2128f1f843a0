package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"worldcup-predict/internal/otp"
	"worldcup-predict/internal/platform/middleware/auth"
	"worldcup-predict/internal/platform/requestcontext"
	"worldcup-predict/internal/session"
	"worldcup-predict/pkg/dtoerr"
)

// OTPService is the subset of internal/otp.Service the auth handler calls.
type OTPService interface {
	SendOTP(ctx context.Context, rawPhone, addr, agent string) (otp.SendResult, error)
	VerifyOTP(ctx context.Context, rawPhone, code, addr string) (userID string, isNew bool, err error)
}

// SessionService is the subset of internal/session.Service the auth
// handler calls.
type SessionService interface {
	CreateSession(ctx context.Context, userID, addr, agent string) (session.Created, error)
	RefreshSession(ctx context.Context, refreshToken string) (string, error)
	ListSessions(ctx context.Context, userID string) ([]session.Session, error)
	DeleteSession(ctx context.Context, userID, id string) error
	DeleteAllUserSessions(ctx context.Context, userID string) (int64, error)
}

// AuthHandler implements spec.md §6's /auth/* endpoint group.
type AuthHandler struct {
	otp      OTPService
	sessions SessionService
	sandbox  bool
	logger   *slog.Logger
}

// NewAuthHandler constructs the auth handler. sandbox controls whether
// send-otp echoes the generated code in the response body, per spec.md
// §4.3 step 7's "in sandbox mode only, return the code in the response
// body."
func NewAuthHandler(otpSvc OTPService, sessions SessionService, sandbox bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{otp: otpSvc, sessions: sessions, sandbox: sandbox, logger: logger}
}

// Register mounts the auth routes on r.
func (h *AuthHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/auth/send-otp", h.handleSendOTP)
	r.Post("/auth/verify-otp", h.handleVerifyOTP)
	r.Post("/auth/refresh", h.handleRefresh)

	r.Group(func(protected chi.Router) {
		protected.Use(requireAuth)
		protected.Get("/auth/sessions", h.handleListSessions)
		protected.Delete("/auth/sessions", h.handleDeleteAllSessions)
		protected.Delete("/auth/sessions/{id}", h.handleDeleteSession)
	})
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

func (h *AuthHandler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInvalidPhone))
		return
	}

	result, err := h.otp.SendOTP(ctx, req.Phone, requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	body := map[string]any{"message": "OTP_SENT_SUCCESSFULLY"}
	if h.sandbox {
		body["otp"] = result.Code
	}
	writeJSON(w, http.StatusOK, body)
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *AuthHandler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInvalidCode))
		return
	}

	userID, _, err := h.otp.VerifyOTP(ctx, req.Phone, req.Code, requestcontext.ClientIP(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.sessions.CreateSession(ctx, userID, requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  created.AccessToken,
		"refreshToken": created.RefreshToken,
		"session": map[string]any{
			"id":        created.Session.ID,
			"userId":    created.Session.UserID,
			"expiresAt": created.Session.ExpiresAt,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dtoerr.New(dtoerr.KindAuthentication, dtoerr.CodeInvalidRefreshToken))
		return
	}

	accessToken, err := h.sessions.RefreshSession(ctx, req.RefreshToken)
	if err != nil {
		writeError(w, dtoerr.New(dtoerr.KindAuthentication, dtoerr.CodeInvalidRefreshToken))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accessToken": accessToken})
}

func (h *AuthHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	sessions, err := h.sessions.ListSessions(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *AuthHandler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)
	id := chi.URLParam(r, "id")
	if err := h.sessions.DeleteSession(ctx, userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "SESSION_DELETED"})
}

func (h *AuthHandler) handleDeleteAllSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)
	if _, err := h.sessions.DeleteAllUserSessions(ctx, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "SESSIONS_DELETED"})
}

func sessionSummary(s session.Session) map[string]any {
	return map[string]any{
		"id":        s.ID,
		"userId":    s.UserID,
		"userAgent": s.UserAgent,
		"createdAt": s.CreatedAt,
		"expiresAt": s.ExpiresAt,
	}
}

// sessionValidatorAdapter adapts internal/session.Service to
// internal/platform/middleware/auth.Validator: the two packages name their
// own Session types (session.Session carries persistence fields the
// middleware never needs), so this small field-projection lives at the
// composition edge rather than forcing either domain package to import the
// other's type.
type sessionValidatorAdapter struct {
	svc *session.Service
}

// NewSessionValidator builds the auth.Validator the RequireAuth middleware
// needs from a concrete *session.Service.
func NewSessionValidator(svc *session.Service) auth.Validator {
	return &sessionValidatorAdapter{svc: svc}
}

func (a *sessionValidatorAdapter) ValidateSession(ctx context.Context, token string) (auth.Session, error) {
	sess, err := a.svc.ValidateSession(ctx, token)
	if err != nil {
		return auth.Session{}, err
	}
	return auth.Session{ID: sess.ID, UserID: sess.UserID, Address: sess.Address, UserAgent: sess.UserAgent}, nil
}
