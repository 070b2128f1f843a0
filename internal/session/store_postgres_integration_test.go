//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/session"
	"worldcup-predict/internal/user"
	"worldcup-predict/pkg/testutil/containers"
)

func seedUser(t *testing.T, pg *containers.PostgresContainer) string {
	t.Helper()
	store := user.NewPostgresStore(pg.DB)
	id, _, err := store.UpsertByPhone(context.Background(), "+989120000000")
	require.NoError(t, err)
	return id
}

func TestPostgresStore_CreateAndListByUser(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	defer pg.Container.Terminate(context.Background())
	defer pg.Truncate(context.Background(), "sessions", "users")

	userID := seedUser(t, pg)
	store := session.NewPostgresStore(pg.DB)

	now := time.Now().UTC().Truncate(time.Second)
	sess := session.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccessHash:  "access-hash",
		RefreshHash: "refresh-hash",
		UserAgent:   "go-test",
		Address:     "127.0.0.1",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, store.Create(context.Background(), sess))

	got, err := store.GetByID(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.UserID, got.UserID)
	require.Equal(t, sess.AccessHash, got.AccessHash)

	list, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPostgresStore_UpdateAccessHashAndDelete(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	defer pg.Container.Terminate(context.Background())
	defer pg.Truncate(context.Background(), "sessions", "users")

	userID := seedUser(t, pg)
	store := session.NewPostgresStore(pg.DB)

	now := time.Now().UTC().Truncate(time.Second)
	sess := session.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccessHash:  "old-hash",
		RefreshHash: "refresh-hash",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, store.Create(context.Background(), sess))

	require.NoError(t, store.UpdateAccessHash(context.Background(), sess.ID, "new-hash"))
	got, err := store.GetByID(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.AccessHash)

	require.NoError(t, store.Delete(context.Background(), sess.ID))
	_, err = store.GetByID(context.Background(), sess.ID)
	require.Error(t, err)
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	defer pg.Container.Terminate(context.Background())
	defer pg.Truncate(context.Background(), "sessions", "users")

	userID := seedUser(t, pg)
	store := session.NewPostgresStore(pg.DB)

	now := time.Now().UTC().Truncate(time.Second)
	expired := session.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccessHash:  "expired-hash",
		RefreshHash: "expired-refresh",
		CreatedAt:   now.Add(-2 * time.Hour),
		ExpiresAt:   now.Add(-time.Hour),
	}
	require.NoError(t, store.Create(context.Background(), expired))

	n, err := store.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = store.GetByID(context.Background(), expired.ID)
	require.Error(t, err)
}
