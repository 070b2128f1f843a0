package teams_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/teams"
)

type countingStore struct {
	calls    int32
	entities []teams.Entity
}

func (s *countingStore) ListAll(ctx context.Context) ([]teams.Entity, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.entities, nil
}

type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemCache() *memCache { return &memCache{values: map[string]string{}} }

func (c *memCache) GetString(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (c *memCache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func fixtureEntities() []teams.Entity {
	return []teams.Entity{
		{ID: "iran", LocalName: "ایران", EnglishName: "Iran", Order: 1, Group: "A"},
		{ID: "england", EnglishName: "England", Order: 2, Group: "A"},
		{ID: "usa", EnglishName: "USA", Order: 3, Group: "A"},
		{ID: "wales", EnglishName: "Wales", Order: 4, Group: "A"},
		{ID: "argentina", EnglishName: "Argentina", Order: 1, Group: "B"},
	}
}

func TestPartition_GroupsByLabelOrderedByOrder(t *testing.T) {
	store := &countingStore{entities: fixtureEntities()}
	svc := teams.New(store, newMemCache())

	partition, err := svc.Partition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"iran", "england", "usa", "wales"}, partition["A"])
	assert.Equal(t, []string{"argentina"}, partition["B"])
}

func TestAll_CachesAfterFirstLoad(t *testing.T) {
	store := &countingStore{entities: fixtureEntities()}
	svc := teams.New(store, newMemCache())

	_, err := svc.All(context.Background())
	require.NoError(t, err)
	_, err = svc.All(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), store.calls, "second call should be served from cache, not the store")
}
