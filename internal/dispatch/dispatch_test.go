package dispatch_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/dispatch"
)

type fakeStore struct {
	jobs []dispatch.Job
}

func (f *fakeStore) PendingSubmissions(ctx context.Context) ([]dispatch.Job, error) {
	return f.jobs, nil
}

type memCache struct {
	values map[string]string
}

func newMemCache() *memCache { return &memCache{values: map[string]string{}} }

func (c *memCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.values[key]
	return ok, nil
}

func (c *memCache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memCache) GetString(ctx context.Context, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", fmt.Errorf("not found")
	}
	return v, nil
}

type fakePublisher struct {
	published  [][]byte
	queueDepth int
}

func (p *fakePublisher) Publish(ctx context.Context, body []byte) error {
	p.published = append(p.published, body)
	return nil
}

func (p *fakePublisher) QueueMessageCount(ctx context.Context) (int, error) {
	return p.queueDepth, nil
}

func TestDispatch_QueuesOneJobPerPendingSubmission(t *testing.T) {
	store := &fakeStore{jobs: []dispatch.Job{
		{SubmissionID: "s1", UserID: "u1"},
		{SubmissionID: "s2", UserID: "u2"},
	}}
	cache := newMemCache()
	pub := &fakePublisher{}

	svc := dispatch.New(store, cache, pub)
	queued, err := svc.Dispatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	assert.Len(t, pub.published, 2)
	assert.JSONEq(t, `{"submissionId":"s1","userId":"u1"}`, string(pub.published[0]))
	assert.JSONEq(t, `{"submissionId":"s2","userId":"u2"}`, string(pub.published[1]))
}

func TestDispatch_InitializesCountersOnFirstRun(t *testing.T) {
	store := &fakeStore{jobs: []dispatch.Job{{SubmissionID: "s1", UserID: "u1"}}}
	cache := newMemCache()
	pub := &fakePublisher{}

	svc := dispatch.New(store, cache, pub)
	_, err := svc.Dispatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1", cache.values["stats:total"])
	assert.Equal(t, "0", cache.values["stats:processed"])
}

func TestDispatch_LeavesExistingCountersAloneOnSubsequentRuns(t *testing.T) {
	store := &fakeStore{jobs: []dispatch.Job{{SubmissionID: "s1", UserID: "u1"}}}
	cache := newMemCache()
	cache.values["stats:total"] = "50"
	cache.values["stats:processed"] = "12"
	pub := &fakePublisher{}

	svc := dispatch.New(store, cache, pub)
	_, err := svc.Dispatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "50", cache.values["stats:total"])
	assert.Equal(t, "12", cache.values["stats:processed"])
}

func TestDispatch_EmptyScanQueuesNothing(t *testing.T) {
	store := &fakeStore{}
	cache := newMemCache()
	pub := &fakePublisher{}

	svc := dispatch.New(store, cache, pub)
	queued, err := svc.Dispatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, queued)
	assert.Equal(t, "0", cache.values["stats:total"])
}

func TestDispatch_PublishFailureStopsAndReturnsPartialCount(t *testing.T) {
	store := &fakeStore{jobs: []dispatch.Job{
		{SubmissionID: "s1", UserID: "u1"},
		{SubmissionID: "s2", UserID: "u2"},
	}}
	cache := newMemCache()
	pub := &failingPublisher{failAfter: 1}

	svc := dispatch.New(store, cache, pub)
	queued, err := svc.Dispatch(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, queued)
}

type failingPublisher struct {
	calls     int
	failAfter int
}

func (p *failingPublisher) Publish(ctx context.Context, body []byte) error {
	p.calls++
	if p.calls > p.failAfter {
		return fmt.Errorf("publish boom")
	}
	return nil
}

func (p *failingPublisher) QueueMessageCount(ctx context.Context) (int, error) {
	return 0, nil
}

func TestDispatch_StatusReportsPendingAndQueueDepth(t *testing.T) {
	cache := newMemCache()
	cache.values["stats:total"] = "10"
	cache.values["stats:processed"] = "4"
	pub := &fakePublisher{queueDepth: 6}

	svc := dispatch.New(&fakeStore{}, cache, pub)
	status, err := svc.Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10, status.Total)
	assert.Equal(t, 4, status.Processed)
	assert.Equal(t, 6, status.Pending)
	assert.Equal(t, 6, status.QueueDepth)
}
