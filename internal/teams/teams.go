// Package teams owns the ground-truth group partition: the 12-label
// A..L grouping of tournament entities, cached under the single
// "correct-groups" key with a populate-once singleflight guard against
// cache-miss stampedes. Grounded on other_examples' stormlightlabs-baseball
// cache.Client (singleflight.Group-backed cache-aside) adapted from a
// parameterized keyspace down to this module's one well-known key.
package teams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"worldcup-predict/internal/scoring"
)

// Entity is a single tournament participant.
type Entity struct {
	ID          string
	LocalName   string
	EnglishName string
	Order       int
	Group       string
	Flag        string
}

// Store loads the full entity list from durable storage.
type Store interface {
	ListAll(ctx context.Context) ([]Entity, error)
}

// Cache is the subset of the cache client teams needs.
type Cache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
}

const cacheKey = "correct-groups"

// DefaultTTL matches spec.md §3's "TTL 1h" for the correct-groups key.
const DefaultTTL = time.Hour

// Service reads the immutable ground-truth partition, fronted by a
// populate-once cache.
type Service struct {
	store Store
	cache Cache
	ttl   time.Duration
	sf    singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New constructs a teams Service.
func New(store Store, cache Cache, opts ...Option) *Service {
	s := &Service{store: store, cache: cache, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Partition returns the ground-truth scoring.GroupAssignment: entity ids
// grouped by their Group label, ordered within each group by Order.
func (s *Service) Partition(ctx context.Context) (scoring.GroupAssignment, error) {
	entities, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return partitionOf(entities), nil
}

// All returns every entity, preferring the cache and falling back to the
// store on a miss, repopulating the cache with DefaultTTL. Concurrent
// cache-miss callers collapse onto a single store load via singleflight.
func (s *Service) All(ctx context.Context) ([]Entity, error) {
	if raw, err := s.cache.GetString(ctx, cacheKey); err == nil {
		var entities []Entity
		if jsonErr := json.Unmarshal([]byte(raw), &entities); jsonErr == nil {
			return entities, nil
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		entities, err := s.store.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("teams: list all: %w", err)
		}
		if payload, jsonErr := json.Marshal(entities); jsonErr == nil {
			_ = s.cache.SetEx(ctx, cacheKey, string(payload), s.ttl)
		}
		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	entities, ok := v.([]Entity)
	if !ok {
		return nil, errors.New("teams: unexpected singleflight result type")
	}
	return entities, nil
}

func partitionOf(entities []Entity) scoring.GroupAssignment {
	byGroup := map[string][]Entity{}
	for _, e := range entities {
		byGroup[e.Group] = append(byGroup[e.Group], e)
	}
	out := make(scoring.GroupAssignment, len(byGroup))
	for label, group := range byGroup {
		sort.Slice(group, func(i, j int) bool { return group[i].Order < group[j].Order })
		ids := make([]string, 0, len(group))
		for _, e := range group {
			ids = append(ids, e.ID)
		}
		out[label] = ids
	}
	return out
}
