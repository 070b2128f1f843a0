package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"worldcup-predict/internal/platform/requestcontext"
	"worldcup-predict/internal/token"
	"worldcup-predict/pkg/dtoerr"
	"worldcup-predict/pkg/sentinel"
)

// FraudChecker is the subset of internal/fraud.Service the session service
// calls. Non-blocking by contract — it never returns an error.
type FraudChecker interface {
	CheckConcurrentSessions(ctx context.Context, userID, currentAddr string)
}

// Metrics is the subset of internal/platform/metrics.Metrics the session
// service reports through.
type Metrics interface {
	IncrementTokenRequests()
	IncrementAuthFailures()
	RecordSessionValidation(path string)
}

// Config controls TTLs and lookup bounds, sourced from config.Session.
type Config struct {
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	RecentLookupLimit int // default 3, spec.md §4.2 step 3
	BulkRefreshLimit  int // default 100, spec.md §4.2 refresh step 1
	RefreshThreshold  int64
}

// Service is C7: session creation, cache-then-DB validation, refresh,
// deletion, and scheduled cleanup. Grounded on the teacher's
// internal/auth/service/service.go façade shape and
// internal/auth/service/token_flow.go's artifact-generation/advance-state
// sequencing, generalized from JWT claims to internal/token's opaque
// bcrypt-hashed tokens.
type Service struct {
	store   Store
	cache   *Cache
	fraud   FraudChecker
	logger  *slog.Logger
	metrics Metrics
	cfg     Config
	params  token.Params
	clock   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option { return func(s *Service) { s.logger = logger } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithFraudChecker(f FraudChecker) Option { return func(s *Service) { s.fraud = f } }
func WithTokenParams(p token.Params) Option  { return func(s *Service) { s.params = p } }
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a session Service.
func New(store Store, cache *Cache, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		params: token.DefaultParams,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Created is the result of CreateSession: the plaintext tokens are returned
// only once, here — they are never persisted or logged.
type Created struct {
	Session      Session
	AccessToken  string
	RefreshToken string
}

// CreateSession implements spec.md §4.2's createSession: fraud check (side
// effect only), generate two token/hash pairs, insert the row, cache both
// prefixes, emit audit + metric.
func (s *Service) CreateSession(ctx context.Context, userID, addr, agent string) (Created, error) {
	if s.fraud != nil {
		s.fraud.CheckConcurrentSessions(ctx, userID, addr)
	}

	accessToken, accessHash, err := s.params.Generate()
	if err != nil {
		return Created{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	refreshToken, refreshHash, err := s.params.Generate()
	if err != nil {
		return Created{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	now := s.clock()
	sess := Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccessHash:  accessHash,
		RefreshHash: refreshHash,
		UserAgent:   agent,
		Address:     addr,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.RefreshTTL),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return Created{}, dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}

	if err := s.cache.SetTokenPointer(ctx, s.params.Prefix(accessToken), sess.ID, s.cfg.AccessTTL); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "session: cache access pointer failed", "error", err, "session_id", sess.ID)
	}
	if err := s.cache.SetRefreshPointer(ctx, s.params.Prefix(refreshToken), sess.ID, s.cfg.RefreshTTL); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "session: cache refresh pointer failed", "error", err, "session_id", sess.ID)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "session_created", "event", "session_created", "log_type", "audit",
			"user_id", userID, "session_id", sess.ID)
	}
	if s.metrics != nil {
		s.metrics.IncrementTokenRequests()
	}

	return Created{Session: sess, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateSession implements spec.md §4.2's validateSession: cache path
// first, then a bounded DB fallback scan, per the prefix-keyed-cache
// rationale documented there.
func (s *Service) ValidateSession(ctx context.Context, presentedToken string) (Session, error) {
	if !s.params.ValidFormat(presentedToken) {
		s.recordFailure(ctx, "invalid_format")
		return Session{}, sentinel.ErrInvalidState
	}
	now := s.clock()
	prefix := s.params.Prefix(presentedToken)

	if sessionID, err := s.cache.SessionIDByTokenPrefix(ctx, prefix); err == nil && sessionID != "" {
		sess, err := s.store.GetByID(ctx, sessionID)
		if err == nil && !sess.expired(now) && token.Verify(presentedToken, sess.AccessHash) {
			s.recordHit(ctx, "cache_hit")
			return sess, nil
		}
		// Hash mismatch or otherwise stale — purge and fall through to DB scan.
		if purgeErr := s.cache.PurgeTokenPointer(ctx, prefix); purgeErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "session: purge stale cache pointer failed", "error", purgeErr)
		}
	}

	sess, err := s.dbFallbackValidate(ctx, presentedToken, now)
	if err != nil {
		s.recordFailure(ctx, "miss")
		return Session{}, sentinel.ErrNotFound
	}
	// Re-cache with TTL = min(remaining, accessTtl).
	remaining := sess.ExpiresAt.Sub(now)
	ttl := remaining
	if s.cfg.AccessTTL < ttl {
		ttl = s.cfg.AccessTTL
	}
	if ttl > 0 {
		if err := s.cache.SetTokenPointer(ctx, prefix, sess.ID, ttl); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "session: re-cache after db fallback failed", "error", err)
		}
	}
	s.recordHit(ctx, "db_fallback")
	return sess, nil
}

func (s *Service) dbFallbackValidate(ctx context.Context, presentedToken string, now time.Time) (Session, error) {
	// The DB fallback can't narrow by user (the token alone doesn't name
	// one), so it scans the most-recently-created non-expired sessions
	// across all users, bounded at RecentLookupLimit, matching spec.md's
	// "bounded constant of bcrypt comparisons" guarantee per lookup.
	candidates, err := s.recentCandidates(ctx, s.cfg.RecentLookupLimit)
	if err != nil {
		return Session{}, err
	}
	for _, cand := range candidates {
		if cand.expired(now) {
			continue
		}
		if token.Verify(presentedToken, cand.AccessHash) {
			return cand, nil
		}
	}
	return Session{}, sentinel.ErrNotFound
}

func (s *Service) recentCandidates(ctx context.Context, limit int) ([]Session, error) {
	return s.store.ListRecentCreated(ctx, limit)
}

func (s *Service) recordHit(ctx context.Context, path string) {
	if s.metrics != nil {
		s.metrics.RecordSessionValidation(path)
	}
}

func (s *Service) recordFailure(ctx context.Context, path string) {
	if s.metrics != nil {
		s.metrics.RecordSessionValidation(path)
		s.metrics.IncrementAuthFailures()
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "session_validation_failed", "reason", path, "request_id", requestcontext.RequestID(ctx))
	}
}

// RefreshSession implements spec.md §4.2's refreshSession: locate by
// refresh-token prefix, verify non-expired + hash match, bump the
// refresh-frequency counter (fraud signal only, never blocks), rotate the
// access hash, re-cache.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (string, error) {
	if !s.params.ValidFormat(refreshToken) {
		return "", sentinel.ErrInvalidState
	}
	now := s.clock()
	prefix := s.params.Prefix(refreshToken)

	sess, err := s.locateByRefreshPrefix(ctx, prefix, refreshToken, now)
	if err != nil {
		return "", sentinel.ErrNotFound
	}

	if n, err := s.cache.IncrRefreshFrequency(ctx, sess.UserID); err == nil && n > s.cfg.RefreshThreshold && s.logger != nil {
		s.logger.InfoContext(ctx, "refresh_frequency_exceeded", "event", "refresh_frequency_exceeded",
			"log_type", "audit", "user_id", sess.UserID, "count", n)
	}

	newAccessToken, newAccessHash, err := s.params.Generate()
	if err != nil {
		return "", dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	if err := s.store.UpdateAccessHash(ctx, sess.ID, newAccessHash); err != nil {
		return "", dtoerr.Wrap(err, dtoerr.KindInfrastructure, dtoerr.CodeInternal)
	}
	if err := s.cache.SetTokenPointer(ctx, s.params.Prefix(newAccessToken), sess.ID, s.cfg.AccessTTL); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "session: cache new access pointer failed", "error", err, "session_id", sess.ID)
	}
	return newAccessToken, nil
}

func (s *Service) locateByRefreshPrefix(ctx context.Context, prefix, refreshToken string, now time.Time) (Session, error) {
	if sessionID, err := s.cache.SessionIDByRefreshPrefix(ctx, prefix); err == nil && sessionID != "" {
		sess, err := s.store.GetByID(ctx, sessionID)
		if err == nil && !sess.expired(now) && token.Verify(refreshToken, sess.RefreshHash) {
			return sess, nil
		}
	}
	candidates, err := s.recentCandidates(ctx, s.cfg.BulkRefreshLimit)
	if err != nil {
		return Session{}, err
	}
	for _, cand := range candidates {
		if cand.expired(now) {
			continue
		}
		if token.Verify(refreshToken, cand.RefreshHash) {
			return cand, nil
		}
	}
	return Session{}, sentinel.ErrNotFound
}

// DeleteSession deletes a single session by id, after verifying it belongs
// to userID — grounded on the teacher's RevokeSession(ctx, userID,
// sessionID) ownership check, since without it any authenticated caller
// could delete another user's session by guessing its id. Cache entries
// are not proactively cleared — TTL plus the hash-verify step keep that
// safe.
func (s *Service) DeleteSession(ctx context.Context, userID, id string) error {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return dtoerr.New(dtoerr.KindAuthorization, dtoerr.CodeForbiddenNotSessionOwner)
	}
	return s.store.Delete(ctx, id)
}

// DeleteAllUserSessions deletes every session owned by a user.
func (s *Service) DeleteAllUserSessions(ctx context.Context, userID string) (int64, error) {
	return s.store.DeleteAllForUser(ctx, userID)
}

// ListSessions returns a user's sessions for GET /auth/sessions.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	return s.store.ListByUser(ctx, userID)
}

// CleanupExpired implements the scheduled-cleanup half of C7: delete every
// session whose expiresAt has passed, emitting the deleted count.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "session_cleanup", "event", "session_cleanup", "log_type", "audit", "deleted", n)
	}
	return n, nil
}
