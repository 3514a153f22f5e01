package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// CacheClient is the slice of the redis API the cache uses. Satisfied by
// *redis.Client.
type CacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ProviderCache keeps candidate lists per (service type, hierarchy level) so
// repeated requests from the same area skip the directory query. Keys carry
// the level field because the same name can appear at several levels of one
// hierarchy; a cached sub-district miss must never answer a city query. Cache
// failures are never fatal; they degrade to a miss.
type ProviderCache struct {
	client CacheClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewProviderCache constructs the cache. A nil client disables caching.
func NewProviderCache(client CacheClient, ttl time.Duration, logger *zap.Logger) *ProviderCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(serviceType, field, value string) string {
	return "providers:" + strings.ToLower(serviceType) + ":" + field + ":" + strings.ToLower(value)
}

// Get returns cached candidates for one hierarchy level and whether the key
// was present.
func (c *ProviderCache) Get(ctx context.Context, serviceType, field, value string) ([]domain.User, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(serviceType, field, value)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("provider cache get failed", zap.Error(err))
		}
		return nil, false
	}
	var providers []domain.User
	if err := json.Unmarshal(raw, &providers); err != nil {
		c.logger.Debug("provider cache decode failed", zap.Error(err))
		return nil, false
	}
	return providers, true
}

// Set stores candidates for the given scope.
func (c *ProviderCache) Set(ctx context.Context, serviceType, field, value string, providers []domain.User) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(providers)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(serviceType, field, value), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("provider cache set failed", zap.Error(err))
	}
}

// Invalidate drops every cached scope for a service type prefix. Used when a
// new provider is onboarded so stale misses do not hide it.
func (c *ProviderCache) Invalidate(ctx context.Context, serviceType string) {
	if c == nil || c.client == nil {
		return
	}
	pattern := "providers:" + strings.ToLower(serviceType) + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Debug("provider cache invalidate failed", zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Debug("provider cache scan failed", zap.Error(err))
	}
}
