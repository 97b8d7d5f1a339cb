package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// redisKeyPrefix 共用 redis 時的命名空間
const redisKeyPrefix = "foodsense:ai:"

// RedisStore 多個實例共用的 redis 快取
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	hits   int64
	misses int64
	errors int64
}

// NewRedisStore 連線並測試 redis
func NewRedisStore(ctx context.Context, cfg *config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	common.LogInfo("redis cache connected",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
		zap.Duration("ttl", cfg.TTL),
	)
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// RedisKey 實際寫入 redis 的鍵
func RedisKey(prompt string, imageData []byte) string {
	return redisKeyPrefix + common.HashString(Key(prompt, imageData))
}

// Get 讀取快取；未命中回傳 ErrCacheMiss
func (s *RedisStore) Get(ctx context.Context, prompt string, imageData []byte) (string, error) {
	val, err := s.client.Get(ctx, RedisKey(prompt, imageData)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddInt64(&s.misses, 1)
			return "", common.ErrCacheMiss
		}
		atomic.AddInt64(&s.errors, 1)
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	atomic.AddInt64(&s.hits, 1)
	return val, nil
}

// Set 寫入快取
func (s *RedisStore) Set(ctx context.Context, prompt string, imageData []byte, value string) error {
	if err := s.client.Set(ctx, RedisKey(prompt, imageData), value, s.ttl).Err(); err != nil {
		atomic.AddInt64(&s.errors, 1)
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Stats 快取統計
func (s *RedisStore) Stats() map[string]interface{} {
	return map[string]interface{}{
		"backend": "redis",
		"hits":    atomic.LoadInt64(&s.hits),
		"misses":  atomic.LoadInt64(&s.misses),
		"errors":  atomic.LoadInt64(&s.errors),
	}
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
