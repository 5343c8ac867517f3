// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"natours/internal/feature/tours/usecase"
	"natours/internal/platform/cache"
	"natours/internal/platform/metrics"
)

// NewTourRepository wraps the tour repository with the Redis cache when Redis
// is available. Otherwise it returns the repository as is.
func NewTourRepository(rdb *redis.Client, ttl time.Duration, inner usecase.TourRepository, m cache.LookupRecorder) usecase.TourRepository {
	if rdb == nil {
		return inner
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return cache.NewCachingTourRepository(rdb, ttl, inner, "tours").WithMetrics(m)
}
