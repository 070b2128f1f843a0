package httpapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/httpapi"
	"worldcup-predict/internal/otp"
	"worldcup-predict/internal/platform/requestcontext"
	"worldcup-predict/internal/session"
	"worldcup-predict/pkg/dtoerr"
	"worldcup-predict/pkg/testutil"
)

type stubOTPService struct{}

func (stubOTPService) SendOTP(ctx context.Context, rawPhone, addr, agent string) (otp.SendResult, error) {
	return otp.SendResult{}, nil
}

func (stubOTPService) VerifyOTP(ctx context.Context, rawPhone, code, addr string) (string, bool, error) {
	return "", false, nil
}

// stubSessionService fakes internal/session.Service just enough to drive
// handleDeleteSession's ownership check without a real store or cache.
type stubSessionService struct {
	sessionsByID map[string]session.Session
}

func (s *stubSessionService) CreateSession(ctx context.Context, userID, addr, agent string) (session.Created, error) {
	return session.Created{}, nil
}

func (s *stubSessionService) RefreshSession(ctx context.Context, refreshToken string) (string, error) {
	return "", nil
}

func (s *stubSessionService) ListSessions(ctx context.Context, userID string) ([]session.Session, error) {
	return nil, nil
}

func (s *stubSessionService) DeleteSession(ctx context.Context, userID, id string) error {
	sess, ok := s.sessionsByID[id]
	if !ok {
		return dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInternal)
	}
	if sess.UserID != userID {
		return dtoerr.New(dtoerr.KindAuthorization, dtoerr.CodeForbiddenNotSessionOwner)
	}
	delete(s.sessionsByID, id)
	return nil
}

func (s *stubSessionService) DeleteAllUserSessions(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

// fakeRequireAuth stands in for internal/platform/middleware/auth.RequireAuth,
// injecting the userID carried on the X-Test-User header so handler tests
// can exercise both the owner and non-owner paths of handleDeleteSession
// without standing up a real bearer-token session.
func fakeRequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithUserID(r.Context(), r.Header.Get("X-Test-User"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(sessions *stubSessionService) http.Handler {
	r := chi.NewRouter()
	h := httpapi.NewAuthHandler(stubOTPService{}, sessions, false, nil)
	h.Register(r, fakeRequireAuth)
	return r
}

func TestHandleDeleteSession_OwnerCanDeleteOwnSession(t *testing.T) {
	sessions := &stubSessionService{sessionsByID: map[string]session.Session{
		"sess-1": {ID: "sess-1", UserID: "user-1"},
	}}
	router := newTestRouter(sessions)

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodDelete, "/auth/sessions/sess-1", nil, "irrelevant-in-this-stub")
	req.Header.Set("X-Test-User", "user-1")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "message", "SESSION_DELETED")
}

func TestHandleDeleteSession_RejectsNonOwnerWithForbidden(t *testing.T) {
	sessions := &stubSessionService{sessionsByID: map[string]session.Session{
		"sess-1": {ID: "sess-1", UserID: "user-1"},
	}}
	router := newTestRouter(sessions)

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodDelete, "/auth/sessions/sess-1", nil, "irrelevant-in-this-stub")
	req.Header.Set("X-Test-User", "user-2")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, dtoerr.CodeForbiddenNotSessionOwner)

	_, stillExists := sessions.sessionsByID["sess-1"]
	require.True(t, stillExists, "the other user's session must survive the rejected delete")
}
