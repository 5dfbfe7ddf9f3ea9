package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stitts-dev/richard-sim/pkg/config"
)

// ErrCacheMiss is returned by every cache backend for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// ResponseCache stores provider responses. Values are JSON encoded.
type ResponseCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Clear(ctx context.Context, prefix string) (int64, error)
}

// NewResponseCache builds the backend selected by CACHE_BACKEND
func NewResponseCache(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) (ResponseCache, error) {
	switch cfg.CacheBackend {
	case "disk":
		if db == nil {
			return nil, fmt.Errorf("disk cache requires a database connection")
		}
		return NewDiskCache(db), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis cache requires a redis client")
		}
		return NewCacheService(redisClient), nil
	case "none":
		logger.Warn("Response caching disabled, every run hits the NHL API")
		return NoopCache{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

// CacheService is the redis backed cache
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{
		client: client,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

// Clear deletes every key under prefix without touching the rest of the database
func (s *CacheService) Clear(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	iter := s.client.Scan(ctx, 0, prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to delete cache: %w", err)
		}
		deleted += n
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan cache: %w", err)
	}
	return deleted, nil
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, interface{}) error { return ErrCacheMiss }

func (NoopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCache) Clear(context.Context, string) (int64, error) { return 0, nil }
