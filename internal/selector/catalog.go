package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/provider"
)

// DefaultCatalogTTL bounds how stale a cached model catalog may get.
const DefaultCatalogTTL = 30 * time.Minute

const catalogKey = "pathwise:model-catalog"

// CatalogCache stores a fetched model catalog for a bounded time. Cache
// failures must degrade to a backend fetch, never fail the request.
type CatalogCache interface {
	Get(ctx context.Context) ([]provider.ModelInfo, bool)
	Set(ctx context.Context, models []provider.ModelInfo)
}

// Catalog serves the model catalog through an explicit, injected,
// time-bounded cache so orchestrator runs stay pure and testable.
type Catalog struct {
	backend provider.Backend
	cache   CatalogCache
	logger  *zap.Logger
}

// NewCatalog wires a backend and a cache. cache may be nil, in which case
// every call fetches live.
func NewCatalog(backend provider.Backend, cache CatalogCache, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{backend: backend, cache: cache, logger: logger}
}

// Models returns the catalog, from cache when fresh.
func (c *Catalog) Models(ctx context.Context) ([]provider.ModelInfo, error) {
	if c.cache != nil {
		if models, ok := c.cache.Get(ctx); ok {
			return models, nil
		}
	}
	return c.Refresh(ctx)
}

// Refresh fetches the live catalog and repopulates the cache. The daemon
// also calls this on a cron schedule so steady-state requests hit cache.
func (c *Catalog) Refresh(ctx context.Context) ([]provider.ModelInfo, error) {
	models, err := c.backend.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh model catalog: %w", err)
	}
	c.logger.Debug("model catalog refreshed", zap.Int("models", len(models)))
	if c.cache != nil {
		c.cache.Set(ctx, models)
	}
	return models, nil
}

// RedisCache is a CatalogCache backed by Redis, shared across replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache builds a catalog cache on an existing Redis client.
// ttl <= 0 falls back to DefaultCatalogTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (r *RedisCache) Get(ctx context.Context) ([]provider.ModelInfo, bool) {
	data, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var models []provider.ModelInfo
	if err := json.Unmarshal(data, &models); err != nil {
		r.logger.Warn("catalog cache entry corrupt, ignoring", zap.Error(err))
		return nil, false
	}
	if len(models) == 0 {
		return nil, false
	}
	return models, true
}

func (r *RedisCache) Set(ctx context.Context, models []provider.ModelInfo) {
	data, err := json.Marshal(models)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, catalogKey, data, r.ttl).Err(); err != nil {
		r.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}

// MemoryCache is a single-process CatalogCache for deployments without
// Redis. Safe for concurrent use.
type MemoryCache struct {
	ttl time.Duration

	mu        sync.Mutex
	models    []provider.ModelInfo
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &MemoryCache{ttl: ttl}
}

func (m *MemoryCache) Get(_ context.Context) ([]provider.ModelInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.models) == 0 || time.Now().After(m.expiresAt) {
		return nil, false
	}
	return m.models, true
}

func (m *MemoryCache) Set(_ context.Context, models []provider.ModelInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = models
	m.expiresAt = time.Now().Add(m.ttl)
}
