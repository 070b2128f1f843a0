//go:build integration

package teams_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/teams"
	"worldcup-predict/pkg/testutil/containers"
	"worldcup-predict/seed"
)

func TestPostgresStore_ListAll_OrderedByOrder(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	defer pg.Container.Terminate(context.Background())
	defer pg.Truncate(context.Background(), "teams")

	defaults, err := seed.Default()
	require.NoError(t, err)
	rows := make([]seed.Team, 0, 4)
	rows = append(rows, defaults[:4]...)
	require.NoError(t, seed.Load(context.Background(), pg.DB, rows))

	store := teams.NewPostgresStore(pg.DB)
	entities, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 4)
	require.Equal(t, "A", entities[0].Group)
	for i := 1; i < len(entities); i++ {
		require.Less(t, entities[i-1].Order, entities[i].Order)
	}
}
