package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/otp"
	"worldcup-predict/pkg/dtoerr"
)

type fakeCache struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) GetString(ctx context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", assert.AnError
	}
	return v, nil
}

func (f *fakeCache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	n, _ := parseInt(f.values[key])
	n++
	f.values[key] = formatInt(n)
	return n, nil
}

func (f *fakeCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.ttls[key] = ttl
	return nil
}

func parseInt(s string) (int64, error) {
	var n int64
	for _, c := range s {
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

func formatInt(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	return string(buf)
}

type fakeUserStore struct {
	byPhone map[string]string
}

func newFakeUserStore() *fakeUserStore { return &fakeUserStore{byPhone: map[string]string{}} }

func (f *fakeUserStore) UpsertByPhone(ctx context.Context, phone string) (string, bool, error) {
	if id, ok := f.byPhone[phone]; ok {
		return id, false, nil
	}
	id := "user-" + phone
	f.byPhone[phone] = id
	return id, true, nil
}

type capturingSender struct {
	lastPhone, lastCode string
}

func (s *capturingSender) Send(ctx context.Context, phone, code string) error {
	s.lastPhone, s.lastCode = phone, code
	return nil
}

func newTestService() (*otp.Service, *fakeCache, *fakeUserStore, *capturingSender) {
	cache := newFakeCache()
	users := newFakeUserStore()
	sender := &capturingSender{}
	cfg := otp.Config{
		Length:            5,
		TTL:               2 * time.Minute,
		SendCooldown:      time.Minute,
		VerifyWindow:      10 * time.Minute,
		MaxVerifyAttempts: 5,
	}
	return otp.New(cache, users, sender, cfg), cache, users, sender
}

func TestSendOTP_GeneratesAndDispatchesCode(t *testing.T) {
	svc, _, _, sender := newTestService()
	ctx := context.Background()

	res, err := svc.SendOTP(ctx, "09123456789", "1.2.3.4", "curl/8")
	require.NoError(t, err)
	assert.Equal(t, "+989123456789", res.NormalizedPhone)
	assert.Len(t, res.Code, 5)
	assert.Equal(t, res.Code, sender.lastCode)
}

func TestSendOTP_InvalidPhoneRejected(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.SendOTP(context.Background(), "not-a-phone", "1.2.3.4", "curl/8")
	require.Error(t, err)
	derr, ok := dtoerr.As(err)
	require.True(t, ok)
	assert.Equal(t, dtoerr.CodeInvalidPhone, derr.Code)
}

func TestSendOTP_CooldownBlocksSecondSend(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SendOTP(ctx, "09123456789", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	_, err = svc.SendOTP(ctx, "09123456789", "1.2.3.4", "curl/8")
	require.Error(t, err)
	derr, ok := dtoerr.As(err)
	require.True(t, ok)
	assert.Equal(t, dtoerr.CodeExceededSendLimit, derr.Code)
}

func TestVerifyOTP_SuccessCreatesNewUser(t *testing.T) {
	svc, _, users, _ := newTestService()
	ctx := context.Background()

	res, err := svc.SendOTP(ctx, "09123456789", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	userID, isNew, err := svc.VerifyOTP(ctx, "09123456789", res.Code, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, users.byPhone["+989123456789"], userID)

	// Second verify against the same (now-deleted) code fails.
	_, _, err = svc.VerifyOTP(ctx, "09123456789", res.Code, "1.2.3.4")
	assert.Error(t, err)
}

func TestVerifyOTP_WrongCodeFails(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SendOTP(ctx, "09123456789", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	_, _, err = svc.VerifyOTP(ctx, "09123456789", "00000", "1.2.3.4")
	require.Error(t, err)
	derr, ok := dtoerr.As(err)
	require.True(t, ok)
	assert.Equal(t, dtoerr.CodeOTPInvalidCode, derr.Code)
}

func TestVerifyOTP_ExceedsAttemptLimit(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SendOTP(ctx, "09123456789", "1.2.3.4", "curl/8")
	require.NoError(t, err)

	var lastErr error
	for i := 0; i < 6; i++ {
		_, _, lastErr = svc.VerifyOTP(ctx, "09123456789", "00000", "1.2.3.4")
	}
	require.Error(t, lastErr)
	derr, ok := dtoerr.As(lastErr)
	require.True(t, ok)
	assert.Equal(t, dtoerr.CodeExceededVerifyAttempt, derr.Code)
}

func TestVerifyOTP_NotFoundWhenNeverSent(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, _, err := svc.VerifyOTP(context.Background(), "09123456789", "12345", "1.2.3.4")
	require.Error(t, err)
	derr, ok := dtoerr.As(err)
	require.True(t, ok)
	assert.Equal(t, dtoerr.CodeOTPNotFoundExpired, derr.Code)
}
