// Package fraud is the C5 fraud-signal detector: phone-pattern checks,
// concurrent-session anomaly detection, and per-phone/per-address OTP
// failure counters. Every check here is a non-blocking "signal + audit log"
// — it informs operators, it never rejects a caller. Grounded on the
// teacher's internal/ratelimit/service/requestlimit/service.go
// functional-options constructor and its ports.LogAudit non-blocking
// audit-emission helper.
package fraud

import (
	"context"
	"log/slog"
	"time"

	"worldcup-predict/internal/platform/requestcontext"
	"worldcup-predict/pkg/phonenumber"
)

// SessionLister returns the user's sessions created within the lookback
// window, most recent first, capped at limit.
type SessionLister interface {
	ListRecentByUser(ctx context.Context, userID string, limit int, since time.Time) ([]SessionRef, error)
}

// SessionRef is the minimal session projection fraud checks need.
type SessionRef struct {
	Address string
}

// Counter is the subset of the cache client fraud counters need: atomic
// increment-with-TTL.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Metrics is the subset of internal/platform/metrics.Metrics fraud signals
// report through.
type Metrics interface {
	RecordFraudSignal(kind string)
}

// Config controls the fraud-detection thresholds.
type Config struct {
	ConcurrentCheckLimit  int           // default 5
	ConcurrentCheckWindow time.Duration // default 5 minutes
	FailureCounterTTL     time.Duration // default 1 hour
	FailureThreshold      int64         // default 5
}

// DefaultConfig matches spec.md §4.4's stated defaults.
var DefaultConfig = Config{
	ConcurrentCheckLimit:  5,
	ConcurrentCheckWindow: 5 * time.Minute,
	FailureCounterTTL:     time.Hour,
	FailureThreshold:      5,
}

// Service detects and logs fraud signals. It never returns an error to its
// caller — every method is best-effort and swallows its own failures after
// logging them, per spec.md §7's "non-blocking signals... never throw."
type Service struct {
	sessions SessionLister
	counter  Counter
	metrics  Metrics
	logger   *slog.Logger
	cfg      Config
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option { return func(s *Service) { s.logger = logger } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithConfig(cfg Config) Option          { return func(s *Service) { s.cfg = cfg } }

// New constructs a fraud Service.
func New(sessions SessionLister, counter Counter, opts ...Option) *Service {
	s := &Service{sessions: sessions, counter: counter, cfg: DefaultConfig}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) logAudit(ctx context.Context, kind string, attrs ...any) {
	if s.metrics != nil {
		s.metrics.RecordFraudSignal(kind)
	}
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", kind, "log_type", "audit")
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		args = append(args, "request_id", reqID)
	}
	s.logger.InfoContext(ctx, kind, args...)
}

// CheckConcurrentSessions audits a login/session-create when any of the
// user's recent sessions carries a non-empty address different from
// currentAddr. Always returns
// immediately; a lister error is logged, not propagated.
func (s *Service) CheckConcurrentSessions(ctx context.Context, userID, currentAddr string) {
	if s.sessions == nil || userID == "" {
		return
	}
	since := requestcontext.Now(ctx).Add(-s.cfg.ConcurrentCheckWindow)
	recents, err := s.sessions.ListRecentByUser(ctx, userID, s.cfg.ConcurrentCheckLimit, since)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "fraud: concurrent session lookup failed", "error", err, "user_id", userID)
		}
		return
	}
	for _, r := range recents {
		if r.Address != "" && r.Address != currentAddr {
			s.logAudit(ctx, "concurrent_session_anomaly", "user_id", userID, "new_address", currentAddr, "other_address", r.Address)
			return
		}
	}
}

// TrackOTPFailureByPhone increments the per-phone OTP failure counter and
// audits if it crosses the configured threshold.
func (s *Service) TrackOTPFailureByPhone(ctx context.Context, phone string) {
	s.trackFailure(ctx, "otp:failures:"+phone, "otp_failure_threshold_phone", "phone", phone)
}

// TrackOTPFailureByAddress increments the per-address OTP failure counter
// and audits if it crosses the configured threshold.
func (s *Service) TrackOTPFailureByAddress(ctx context.Context, addr string) {
	s.trackFailure(ctx, "otp:ip:failures:"+addr, "otp_failure_threshold_address", "address", addr)
}

func (s *Service) trackFailure(ctx context.Context, key, auditKind string, attrKey, attrVal string) {
	if s.counter == nil {
		return
	}
	n, err := s.counter.Incr(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "fraud: failure counter increment failed", "error", err, "key", key)
		}
		return
	}
	if n == 1 {
		if err := s.counter.Expire(ctx, key, s.cfg.FailureCounterTTL); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "fraud: failure counter expire failed", "error", err, "key", key)
		}
	}
	if n >= s.cfg.FailureThreshold {
		s.logAudit(ctx, auditKind, attrKey, attrVal, "count", n)
	}
}

// PhonePattern audits an unusual phone pattern at OTP-send time. It never
// blocks the send — only logs, per spec.md §4.3 step 2.
func (s *Service) PhonePattern(ctx context.Context, normalizedPhone string) {
	reason, suspicious := phonenumber.SuspiciousPattern(normalizedPhone)
	if !suspicious {
		return
	}
	s.logAudit(ctx, "suspicious_phone_pattern", "phone", normalizedPhone, "reason", reason)
}
