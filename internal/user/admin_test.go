package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/user"
	"worldcup-predict/pkg/sentinel"
)

type fakeStore struct {
	byID map[string]user.User
}

func (f *fakeStore) UpsertByPhone(ctx context.Context, phone string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeStore) FindByID(ctx context.Context, id string) (user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return user.User{}, sentinel.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) FindByPhone(ctx context.Context, phone string) (user.User, error) {
	for _, u := range f.byID {
		if u.Phone == phone {
			return u, nil
		}
	}
	return user.User{}, sentinel.ErrNotFound
}

func TestAdminLookup_IsAdmin(t *testing.T) {
	store := &fakeStore{byID: map[string]user.User{
		"admin-1": {ID: "admin-1", Phone: "+989123456789", IsAdmin: true},
		"user-1":  {ID: "user-1", Phone: "+989111111111", IsAdmin: false},
	}}
	lookup := user.NewAdminLookup(store)

	ok, err := lookup.IsAdmin(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lookup.IsAdmin(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminLookup_UnknownUserPropagatesNotFound(t *testing.T) {
	store := &fakeStore{byID: map[string]user.User{}}
	lookup := user.NewAdminLookup(store)

	_, err := lookup.IsAdmin(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
