package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
)

const (
	availabilityCachePrefix  = "availability:daily:"
	availabilityCachePattern = availabilityCachePrefix + "*"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	gridGen    atomic.Uint64
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// GridGeneration identifies the current grid invalidation epoch. Capture it
// before reading the grid's source rows and hand it to StoreGrid.
func (s *CacheService) GridGeneration() uint64 {
	if s == nil {
		return 0
	}
	return s.gridGen.Load()
}

// LoadGrid returns the cached daily grid for date, if any. Backend failures
// count as a miss.
func (s *CacheService) LoadGrid(ctx context.Context, date string) (*models.DailyGrid, bool) {
	var grid models.DailyGrid
	hit, err := s.Get(ctx, availabilityCachePrefix+date, &grid)
	if err != nil || !hit {
		return nil, false
	}
	return &grid, true
}

// StoreGrid caches grid under its date unless an invalidation ran since gen
// was captured. An invalidation racing the write itself removes the entry
// again, so a grid built before a booking commit is never left behind.
func (s *CacheService) StoreGrid(ctx context.Context, grid models.DailyGrid, ttl time.Duration, gen uint64) {
	if !s.Enabled() || s.gridGen.Load() != gen {
		return
	}
	key := availabilityCachePrefix + grid.Date
	if err := s.Set(ctx, key, grid, ttl); err != nil {
		return
	}
	if s.gridGen.Load() != gen {
		_ = s.Invalidate(ctx, key)
	}
}

// InvalidateGrids drops every cached daily grid in this process and in redis.
// Other API instances still holding a grid built before the drop keep it for
// at most the cache TTL.
func (s *CacheService) InvalidateGrids(ctx context.Context) {
	if s == nil {
		return
	}
	s.gridGen.Add(1)
	_ = s.Invalidate(ctx, availabilityCachePattern)
}
