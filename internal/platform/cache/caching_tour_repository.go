// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"natours/internal/domain/entity"
	"natours/internal/feature/tours/usecase"
	"natours/internal/platform/apifeatures"
	"natours/internal/platform/crud"
)

// LookupRecorder records cache hits and misses.
type LookupRecorder interface {
	RecordCacheLookup(hit bool)
}

// CachingTourRepository decorates a TourRepository with Redis caching.
// Reads of lists and single tours are cached; every write drops the whole namespace.
type CachingTourRepository struct {
	inner     usecase.TourRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	metrics   LookupRecorder
}

// NewCachingTourRepository decorates a TourRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "tours".
func NewCachingTourRepository(rdb *redis.Client, ttl time.Duration, inner usecase.TourRepository, namespace string) *CachingTourRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "tours"
	}
	return &CachingTourRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// WithMetrics records every cache lookup on m.
func (c *CachingTourRepository) WithMetrics(m LookupRecorder) *CachingTourRepository {
	c.metrics = m
	return c
}

// List returns cached tours for the directive set. Scoped lists bypass the cache.
func (c *CachingTourRepository) List(ctx context.Context, d apifeatures.Directives, filters ...crud.Filter) ([]entity.Tour, error) {
	if c.rdb == nil || len(filters) > 0 {
		return c.inner.List(ctx, d, filters...)
	}
	var out []entity.Tour
	err := c.cached(ctx, c.key("list", digest(d.Key())), &out, func() (any, error) {
		tours, err := c.inner.List(ctx, d)
		out = tours
		return tours, err
	})
	return out, err
}

// Get retrieves a tour, checking cache first then falling back to the database.
func (c *CachingTourRepository) Get(ctx context.Context, id uint) (*entity.Tour, error) {
	if c.rdb == nil {
		return c.inner.Get(ctx, id)
	}
	var out *entity.Tour
	err := c.cached(ctx, c.key("id", fmt.Sprint(id)), &out, func() (any, error) {
		tour, err := c.inner.Get(ctx, id)
		out = tour
		return tour, err
	})
	return out, err
}

// GetBySlug retrieves a tour by slug, checking cache first.
func (c *CachingTourRepository) GetBySlug(ctx context.Context, slug string) (*entity.Tour, error) {
	if c.rdb == nil {
		return c.inner.GetBySlug(ctx, slug)
	}
	var out *entity.Tour
	err := c.cached(ctx, c.key("slug", slug), &out, func() (any, error) {
		tour, err := c.inner.GetBySlug(ctx, slug)
		out = tour
		return tour, err
	})
	return out, err
}

// Create inserts a tour and invalidates the cache.
func (c *CachingTourRepository) Create(ctx context.Context, tour *entity.Tour) error {
	if err := c.inner.Create(ctx, tour); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Update updates a tour and invalidates the cache.
func (c *CachingTourRepository) Update(ctx context.Context, id uint, fields map[string]any) (*entity.Tour, error) {
	tour, err := c.inner.Update(ctx, id, fields)
	// a failed update may still have written
	c.invalidate(ctx)
	return tour, err
}

// Delete removes a tour and invalidates the cache.
func (c *CachingTourRepository) Delete(ctx context.Context, id uint) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// SetGuides replaces the guides of a tour and invalidates the cache.
func (c *CachingTourRepository) SetGuides(ctx context.Context, tourID uint, guideIDs []uint) error {
	if err := c.inner.SetGuides(ctx, tourID, guideIDs); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// UpdateRatings stores the ratings derived from reviews and invalidates the cache.
func (c *CachingTourRepository) UpdateRatings(ctx context.Context, tourID uint, quantity int, average float64) error {
	if err := c.inner.UpdateRatings(ctx, tourID, quantity, average); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Stats is not cached.
func (c *CachingTourRepository) Stats(ctx context.Context, minRating float64) ([]entity.TourStat, error) {
	return c.inner.Stats(ctx, minRating)
}

// Schedules is not cached.
func (c *CachingTourRepository) Schedules(ctx context.Context) ([]entity.Tour, error) {
	return c.inner.Schedules(ctx)
}

// StartLocations is not cached.
func (c *CachingTourRepository) StartLocations(ctx context.Context) ([]entity.Tour, error) {
	return c.inner.StartLocations(ctx)
}

// cached decodes the value at key into dst. On a miss it calls load, which
// must fill dst itself, and stores the loaded value.
func (c *CachingTourRepository) cached(ctx context.Context, key string, dst any, load func() (any, error)) error {
	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, dst); err == nil {
			c.record(true)
			return nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}
	c.record(false)

	// 2) Fallback to database
	v, err := load()
	if err != nil {
		return err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return nil
}

func (c *CachingTourRepository) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(hit)
	}
}

// invalidate drops every cached tour. Best effort: a failure only leaves entries to expire.
func (c *CachingTourRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	_ = c.deleteByPattern(ctx, c.namespace+":*")
}

// key generates a cache key for a lookup kind and its argument.
// Redis keys are binary safe, so arg is used as is.
func (c *CachingTourRepository) key(kind, arg string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, kind, arg)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingTourRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// digest はクエリ由来の長さ不定のキーを固定長にする。
func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
