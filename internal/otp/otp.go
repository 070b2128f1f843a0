// Package otp is C6: the phone-based one-time-passcode service. It owns
// send/verify cooldown and attempt bookkeeping against the cache, delegates
// SMS dispatch behind an SMS port, and upserts the user record on first
// successful verification. Grounded on the teacher's
// internal/ratelimit/ports/ports.go LogAudit helper (reused here as
// logAudit) and on the verify/new-vs-existing-user branching shape of
// other_examples' aelexs realtime-messaging-platform OTP verify flow,
// adapted from JWT/device-bound sessions to this module's phone+code model.
package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"worldcup-predict/internal/platform/requestcontext"
	"worldcup-predict/pkg/dtoerr"
	"worldcup-predict/pkg/phonenumber"
)

// Cache is the subset of the cache client the OTP service needs.
type Cache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// UserStore upserts a user by normalized phone, returning its id. It is
// implemented outside this package (internal/user owns the users table);
// the OTP service only needs this one operation to complete
// verifyOtp's "create-or-touch user" step.
type UserStore interface {
	UpsertByPhone(ctx context.Context, normalizedPhone string) (userID string, isNew bool, err error)
}

// Sender is the SMS dispatch port. SandboxSender (below) is the only
// implementation this module ships; a real provider adapter plugs in behind
// the same interface without otp.Service changing.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// FraudSignaler is the subset of internal/fraud.Service the OTP service
// calls. Every method is non-blocking by contract.
type FraudSignaler interface {
	PhonePattern(ctx context.Context, normalizedPhone string)
	TrackOTPFailureByPhone(ctx context.Context, phone string)
	TrackOTPFailureByAddress(ctx context.Context, addr string)
}

// Metrics is the subset of internal/platform/metrics.Metrics OTP reports
// through.
type Metrics interface {
	IncrementOTPSent()
	IncrementOTPVerified()
	RecordOTPFailure(reason string)
}

// Config controls OTP length, TTLs, and attempt limits, sourced from
// config.OTP.
type Config struct {
	Length            int
	TTL               time.Duration
	SendCooldown      time.Duration
	VerifyWindow      time.Duration
	MaxVerifyAttempts int64
}

// record is the JSON payload stored under otp:phone:{phone}.
type record struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

const (
	phoneKeyPrefix    = "otp:phone:"
	sendLimitPrefix   = "otp:send:limit:"
	lastRequestPrefix = "otp:last_request:"
	verifyAttemptsKey = "otp:verify:attempts:"
)

// Service is C6: OTP send/verify against the cache, fronted by a Sender
// port and followed by a UserStore upsert on success.
type Service struct {
	cache   Cache
	users   UserStore
	sender  Sender
	fraud   FraudSignaler
	logger  *slog.Logger
	metrics Metrics
	cfg     Config
	clock   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option   { return func(s *Service) { s.logger = logger } }
func WithMetrics(m Metrics) Option            { return func(s *Service) { s.metrics = m } }
func WithFraudSignaler(f FraudSignaler) Option { return func(s *Service) { s.fraud = f } }
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs an OTP Service.
func New(cache Cache, users UserStore, sender Sender, cfg Config, opts ...Option) *Service {
	s := &Service{cache: cache, users: users, sender: sender, cfg: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) logAudit(ctx context.Context, kind string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", kind, "log_type", "audit")
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		args = append(args, "request_id", reqID)
	}
	s.logger.InfoContext(ctx, kind, args...)
}

// SendResult always carries the dispatched code back to the caller — the
// service itself has no opinion on whether the code belongs in the HTTP
// response; that decision (config.SMS.Sandbox) lives at the edge.
type SendResult struct {
	NormalizedPhone string
	Code            string
}

// SendOTP implements spec.md §4.3's sendOtp: normalize, audit suspicious
// patterns, enforce the send-limit and cooldown keys, generate and store a
// code, dispatch it, and set both cooldown keys.
func (s *Service) SendOTP(ctx context.Context, rawPhone, addr, agent string) (SendResult, error) {
	if !phonenumber.Valid(phonenumber.Normalize(rawPhone)) {
		return SendResult{}, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInvalidPhone)
	}
	phone := phonenumber.Normalize(rawPhone)

	if s.fraud != nil {
		s.fraud.PhonePattern(ctx, phone)
	}

	if _, err := s.cache.GetString(ctx, sendLimitPrefix+phone); err == nil {
		s.recordFailure(ctx, "exceeded_send_limit")
		return SendResult{}, dtoerr.New(dtoerr.KindRateLimit, dtoerr.CodeExceededSendLimit)
	}
	if _, err := s.cache.GetString(ctx, lastRequestPrefix+phone); err == nil {
		s.recordFailure(ctx, "please_wait")
		return SendResult{}, dtoerr.New(dtoerr.KindRateLimit, dtoerr.CodePleaseWaitBeforeNext)
	}

	code, err := generateCode(s.cfg.Length)
	if err != nil {
		return SendResult{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	now := s.clock()
	rec := record{Code: code, ExpiresAt: now.Add(s.cfg.TTL)}
	payload, err := json.Marshal(rec)
	if err != nil {
		return SendResult{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	if err := s.cache.SetEx(ctx, phoneKeyPrefix+phone, string(payload), s.cfg.TTL); err != nil {
		return SendResult{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	if err := s.cache.SetEx(ctx, sendLimitPrefix+phone, "1", s.cfg.SendCooldown); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "otp: set send-limit key failed", "error", err, "phone", phone)
	}
	if err := s.cache.SetEx(ctx, lastRequestPrefix+phone, "1", s.cfg.SendCooldown); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "otp: set last-request key failed", "error", err, "phone", phone)
	}

	if s.sender != nil {
		if err := s.sender.Send(ctx, phone, code); err != nil {
			return SendResult{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
		}
	}

	s.logAudit(ctx, "otp_sent", "phone", phone, "address", addr, "user_agent", agent)
	if s.metrics != nil {
		s.metrics.IncrementOTPSent()
	}

	return SendResult{NormalizedPhone: phone, Code: code}, nil
}

// VerifyOTP implements spec.md §4.3's verifyOtp: attempt-count the caller,
// load and validate the stored code, and upsert the user on success.
func (s *Service) VerifyOTP(ctx context.Context, rawPhone, code, addr string) (userID string, isNew bool, err error) {
	if !phonenumber.Valid(phonenumber.Normalize(rawPhone)) {
		return "", false, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeInvalidPhone)
	}
	phone := phonenumber.Normalize(rawPhone)

	attempts, incrErr := s.cache.Incr(ctx, verifyAttemptsKey+phone)
	if incrErr != nil {
		return "", false, dtoerr.Wrap(incrErr, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	if attempts == 1 {
		if expErr := s.cache.Expire(ctx, verifyAttemptsKey+phone, s.cfg.VerifyWindow); expErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "otp: set verify-attempts TTL failed", "error", expErr, "phone", phone)
		}
	}
	if attempts > s.cfg.MaxVerifyAttempts {
		s.recordFailure(ctx, "exceeded_verify_attempts")
		if s.fraud != nil {
			s.fraud.TrackOTPFailureByPhone(ctx, phone)
		}
		return "", false, dtoerr.New(dtoerr.KindRateLimit, dtoerr.CodeExceededVerifyAttempt)
	}

	raw, getErr := s.cache.GetString(ctx, phoneKeyPrefix+phone)
	if getErr != nil {
		s.recordFailure(ctx, "not_found_or_expired")
		return "", false, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeOTPNotFoundExpired)
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", false, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	now := s.clock()
	if now.After(rec.ExpiresAt) {
		s.recordFailure(ctx, "expired")
		return "", false, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeOTPExpired)
	}
	if code != rec.Code {
		s.recordFailure(ctx, "invalid_code")
		if s.fraud != nil {
			s.fraud.TrackOTPFailureByPhone(ctx, phone)
			if addr != "" {
				s.fraud.TrackOTPFailureByAddress(ctx, addr)
			}
		}
		return "", false, dtoerr.New(dtoerr.KindValidation, dtoerr.CodeOTPInvalidCode)
	}

	if delErr := s.cache.Del(ctx, phoneKeyPrefix+phone, verifyAttemptsKey+phone); delErr != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "otp: cleanup keys after verify failed", "error", delErr, "phone", phone)
	}

	userID, isNew, err = s.users.UpsertByPhone(ctx, phone)
	if err != nil {
		return "", false, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	s.logAudit(ctx, "otp_verified", "phone", phone, "user_id", userID, "is_new_user", isNew)
	if s.metrics != nil {
		s.metrics.IncrementOTPVerified()
	}
	return userID, isNew, nil
}

func (s *Service) recordFailure(ctx context.Context, reason string) {
	if s.metrics != nil {
		s.metrics.RecordOTPFailure(reason)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "otp_failure", "reason", reason, "request_id", requestcontext.RequestID(ctx))
	}
}

// generateCode produces an n-digit numeric code using crypto/rand, zero
// padded, never starting with a leading-zero bias towards any particular
// digit (each digit drawn uniformly from 0-9).
func generateCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("otp: generate code: %w", err)
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}
