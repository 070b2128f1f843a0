package fraud_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/fraud"
)

type fakeSessionLister struct {
	refs []fraud.SessionRef
	err  error
}

func (f *fakeSessionLister) ListRecentByUser(ctx context.Context, userID string, limit int, since time.Time) ([]fraud.SessionRef, error) {
	return f.refs, f.err
}

type fakeCounter struct {
	values map[string]int64
}

func newFakeCounter() *fakeCounter { return &fakeCounter{values: map[string]int64{}} }

func (f *fakeCounter) Incr(ctx context.Context, key string) (int64, error) {
	f.values[key]++
	return f.values[key], nil
}

func (f *fakeCounter) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

type fakeMetrics struct {
	signals map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{signals: map[string]int{}} }

func (f *fakeMetrics) RecordFraudSignal(kind string) { f.signals[kind]++ }

func noopLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestCheckConcurrentSessions_DifferentAddressEmitsSignal(t *testing.T) {
	lister := &fakeSessionLister{refs: []fraud.SessionRef{{Address: "10.0.0.1"}}}
	metrics := newFakeMetrics()
	svc := fraud.New(lister, newFakeCounter(), fraud.WithLogger(noopLogger()), fraud.WithMetrics(metrics))

	svc.CheckConcurrentSessions(context.Background(), "user-1", "10.0.0.2")

	assert.Equal(t, 1, metrics.signals["concurrent_session_anomaly"])
}

func TestCheckConcurrentSessions_SameAddressNoSignal(t *testing.T) {
	lister := &fakeSessionLister{refs: []fraud.SessionRef{{Address: "10.0.0.1"}}}
	metrics := newFakeMetrics()
	svc := fraud.New(lister, newFakeCounter(), fraud.WithLogger(noopLogger()), fraud.WithMetrics(metrics))

	svc.CheckConcurrentSessions(context.Background(), "user-1", "10.0.0.1")

	assert.Equal(t, 0, metrics.signals["concurrent_session_anomaly"])
}

func TestCheckConcurrentSessions_ListerErrorNeverPanics(t *testing.T) {
	lister := &fakeSessionLister{err: errors.New("boom")}
	svc := fraud.New(lister, newFakeCounter(), fraud.WithLogger(noopLogger()))

	require.NotPanics(t, func() {
		svc.CheckConcurrentSessions(context.Background(), "user-1", "10.0.0.2")
	})
}

func TestTrackOTPFailureByPhone_CrossesThreshold(t *testing.T) {
	counter := newFakeCounter()
	metrics := newFakeMetrics()
	cfg := fraud.DefaultConfig
	cfg.FailureThreshold = 3
	svc := fraud.New(nil, counter, fraud.WithLogger(noopLogger()), fraud.WithMetrics(metrics), fraud.WithConfig(cfg))

	for i := 0; i < 3; i++ {
		svc.TrackOTPFailureByPhone(context.Background(), "+989123456789")
	}

	assert.Equal(t, 1, metrics.signals["otp_failure_threshold_phone"])
}

func TestPhonePattern_SuspiciousEmitsSignal(t *testing.T) {
	metrics := newFakeMetrics()
	svc := fraud.New(nil, newFakeCounter(), fraud.WithLogger(noopLogger()), fraud.WithMetrics(metrics))

	svc.PhonePattern(context.Background(), "+989123456789")

	assert.Equal(t, 1, metrics.signals["suspicious_phone_pattern"])
}

func TestPhonePattern_NormalNoSignal(t *testing.T) {
	metrics := newFakeMetrics()
	svc := fraud.New(nil, newFakeCounter(), fraud.WithLogger(noopLogger()), fraud.WithMetrics(metrics))

	svc.PhonePattern(context.Background(), "+989194736281")

	assert.Equal(t, 0, metrics.signals["suspicious_phone_pattern"])
}
