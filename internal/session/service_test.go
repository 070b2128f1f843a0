package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/session"
	"worldcup-predict/internal/token"
	"worldcup-predict/pkg/dtoerr"
)

type fakeStore struct {
	byID map[string]session.Session
}

func newFakeStore() *fakeStore { return &fakeStore{byID: map[string]session.Session{}} }

func (f *fakeStore) Create(ctx context.Context, s session.Session) error {
	f.byID[s.ID] = s
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (session.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return session.Session{}, assert.AnError
	}
	return s, nil
}

func (f *fakeStore) ListRecentNonExpired(ctx context.Context, userID string, limit int) ([]session.Session, error) {
	return f.filterByUser(userID), nil
}

func (f *fakeStore) ListRecentCreated(ctx context.Context, limit int) ([]session.Session, error) {
	var out []session.Session
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID string) ([]session.Session, error) {
	return f.filterByUser(userID), nil
}

func (f *fakeStore) filterByUser(userID string) []session.Session {
	var out []session.Session
	for _, s := range f.byID {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeStore) UpdateAccessHash(ctx context.Context, id, newHash string) error {
	s := f.byID[id]
	s.AccessHash = newHash
	f.byID[id] = s
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeStore) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	for id, s := range f.byID {
		if s.UserID == userID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.byID {
		if now.After(s.ExpiresAt) {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeCacheClient struct {
	values map[string]string
}

func newFakeCacheClient() *fakeCacheClient { return &fakeCacheClient{values: map[string]string{}} }

func (f *fakeCacheClient) GetString(ctx context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", assert.AnError
	}
	return v, nil
}

func (f *fakeCacheClient) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeCacheClient) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCacheClient) Incr(ctx context.Context, key string) (int64, error) {
	return 1, nil
}

func (f *fakeCacheClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func newTestService() *session.Service {
	store := newFakeStore()
	cache := session.NewCache(newFakeCacheClient())
	cfg := session.Config{
		AccessTTL:         15 * time.Minute,
		RefreshTTL:        30 * 24 * time.Hour,
		RecentLookupLimit: 3,
		BulkRefreshLimit:  100,
		RefreshThreshold:  10,
	}
	return session.New(store, cache, cfg, session.WithTokenParams(token.Params{TokenBytes: 32, BcryptCost: 4, PrefixLen: 16}))
}

func TestCreateAndValidateSession_CacheHit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "user-1", "1.2.3.4", "curl/8")
	require.NoError(t, err)
	assert.NotEmpty(t, created.AccessToken)
	assert.NotEmpty(t, created.RefreshToken)

	got, err := svc.ValidateSession(ctx, created.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.Session.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
}

func TestValidateSession_WrongTokenFails(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "user-1", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	_, err = svc.ValidateSession(ctx, "0000000000000000000000000000000000000000000000000000000000000000"[:64])
	assert.Error(t, err)
}

func TestValidateSession_MalformedTokenFails(t *testing.T) {
	svc := newTestService()
	_, err := svc.ValidateSession(context.Background(), "not-hex")
	assert.Error(t, err)
}

func TestRefreshSession_RotatesAccessHashOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "user-1", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	newAccess, err := svc.RefreshSession(ctx, created.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, created.AccessToken, newAccess)

	// Old access token must no longer validate; new one must.
	_, err = svc.ValidateSession(ctx, created.AccessToken)
	assert.Error(t, err)

	got, err := svc.ValidateSession(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, created.Session.ID, got.ID)

	// Refresh token is not rotated: a second refresh with the same token still works.
	_, err = svc.RefreshSession(ctx, created.RefreshToken)
	assert.NoError(t, err)
}

func TestDeleteSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "user-1", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, "user-1", created.Session.ID))

	sessions, err := svc.ListSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDeleteSession_RejectsDeletingAnotherUsersSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "user-1", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	err = svc.DeleteSession(ctx, "user-2", created.Session.ID)
	require.Error(t, err)
	assert.Equal(t, dtoerr.KindAuthorization, dtoerr.KindOf(err))

	sessions, listErr := svc.ListSessions(ctx, "user-1")
	require.NoError(t, listErr)
	assert.Len(t, sessions, 1, "the other user's session must survive the rejected delete")
}

func TestCleanupExpired(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "user-1", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "freshly created session should not be expired yet")
}
