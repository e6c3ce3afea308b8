package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercato/catalog/internal/domain"
	"github.com/mercato/catalog/internal/search"
)

const (
	productKeyPrefix = "product:"
	searchKeyPrefix  = "search:products:"

	// generationKey holds the search group's invalidation counter. Search
	// keys embed the current generation, so bumping it makes every prior
	// entry unreachable without scanning the keyspace.
	generationKey = "search:products:generation"
)

// Store is a Redis-backed read-through cache for products and search
// result sets. Redis failures degrade to the loader and are logged,
// never surfaced; the loader's own error always surfaces.
type Store struct {
	client *redis.Client
	ttlMin time.Duration
	ttlMax time.Duration
	logger *slog.Logger
}

// New creates a cache store. Entry TTLs are drawn uniformly from
// [ttlMin, ttlMax) so a burst of writes does not expire in one wave.
func New(client *redis.Client, ttlMin, ttlMax time.Duration, logger *slog.Logger) *Store {
	if ttlMax <= ttlMin {
		ttlMax = ttlMin + time.Second
	}
	return &Store{
		client: client,
		ttlMin: ttlMin,
		ttlMax: ttlMax,
		logger: logger,
	}
}

// Fingerprint derives a stable cache key fragment from normalized search
// params: the sha-256 hex digest of their key-sorted JSON encoding.
// Equivalent filter maps always produce the same fingerprint.
func Fingerprint(params map[string]string) string {
	data, _ := json.Marshal(params) // map keys marshal sorted
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetOrLoadProduct returns the cached product or falls through to the
// loader and caches the result.
func (s *Store) GetOrLoadProduct(ctx context.Context, id string, loader func(context.Context) (*domain.Product, error)) (*domain.Product, error) {
	key := productKeyPrefix + id

	data, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		s.logger.Warn("cache: discarding undecodable product entry", "key", key)
	} else if err != redis.Nil {
		s.logger.Warn("cache: product read failed, falling through", "key", key, "error", err)
	}

	p, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	s.set(ctx, key, p)
	return p, nil
}

// InvalidateProduct removes the single-product cache entry.
func (s *Store) InvalidateProduct(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, productKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("cache: invalidate product %s: %w", id, err)
	}
	return nil
}

// GetOrLoadSearch returns the cached result set for the fingerprint or
// falls through to the loader and caches the result under the current
// search generation.
func (s *Store) GetOrLoadSearch(ctx context.Context, fingerprint string, loader func(context.Context) (*search.ResultSet, error)) (*search.ResultSet, error) {
	key, ok := s.searchKey(ctx, fingerprint)
	if !ok {
		// Generation unavailable means no addressable cache slot.
		return loader(ctx)
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var rs search.ResultSet
		if err := json.Unmarshal(data, &rs); err == nil {
			return &rs, nil
		}
		s.logger.Warn("cache: discarding undecodable search entry", "key", key)
	} else if err != redis.Nil {
		s.logger.Warn("cache: search read failed, falling through", "key", key, "error", err)
	}

	rs, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	s.set(ctx, key, rs)
	return rs, nil
}

// FlushSearch invalidates every cached search result set by bumping the
// group generation. O(1) regardless of how many entries exist; orphaned
// entries expire via their TTL.
func (s *Store) FlushSearch(ctx context.Context) error {
	if err := s.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("cache: flush search group: %w", err)
	}
	return nil
}

// searchKey builds the generation-scoped key for a fingerprint. Returns
// false when the generation cannot be read.
func (s *Store) searchKey(ctx context.Context, fingerprint string) (string, bool) {
	gen, err := s.client.Get(ctx, generationKey).Result()
	if err == redis.Nil {
		gen = "0"
	} else if err != nil {
		s.logger.Warn("cache: generation read failed, bypassing cache", "error", err)
		return "", false
	}
	return searchKeyPrefix + gen + ":" + fingerprint, true
}

// set writes a value with a jittered TTL. Failures are logged only.
func (s *Store) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache: marshal failed", "key", key, "error", err)
		return
	}

	if err := s.client.Set(ctx, key, data, s.ttl()).Err(); err != nil {
		s.logger.Warn("cache: write failed", "key", key, "error", err)
	}
}

func (s *Store) ttl() time.Duration {
	spread := int64(s.ttlMax - s.ttlMin)
	return s.ttlMin + time.Duration(rand.Int63n(spread)) // #nosec G404 jitter only
}
