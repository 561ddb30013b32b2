package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/resilience"
)

const keyPrefix = "sizefit:cache:"

// RedisStore keeps entries in Redis and falls back to an in-memory Cache
// whenever a Redis call fails. After repeated failures the breaker opens and
// Redis is skipped until its recovery timeout passes.
type RedisStore struct {
	client   *RedisClient
	ttl      time.Duration
	fallback *Cache
	breaker  *resilience.CircuitBreaker

	redisErrors atomic.Int64
}

// NewStore returns a RedisStore when client is enabled, otherwise an
// in-memory Cache.
func NewStore(client *RedisClient, ttl time.Duration) Store {
	if client.IsEnabled() {
		return NewRedisStore(client, ttl)
	}
	return NewCache(ttl)
}

func NewRedisStore(client *RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:   client,
		ttl:      ttl,
		fallback: NewCache(ttl),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		}),
	}
}

// record feeds err to the breaker; a missing key is not a failure
func (s *RedisStore) record(err error) bool {
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	s.breaker.Record(err)
	if err != nil {
		s.redisErrors.Add(1)
		return false
	}
	return true
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.breaker.Allow() {
		return s.fallback.Get(ctx, key)
	}
	data, err := s.client.GetClient().Get(ctx, keyPrefix+key).Bytes()
	if !s.record(err) {
		slog.Warn("Redis cache get failed, using fallback", "key", key, "error", err)
	}
	if err == nil {
		return data, true
	}
	return s.fallback.Get(ctx, key)
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte) {
	if !s.breaker.Allow() {
		s.fallback.Set(ctx, key, data)
		return
	}
	if err := s.client.GetClient().Set(ctx, keyPrefix+key, data, s.ttl).Err(); !s.record(err) {
		slog.Warn("Redis cache set failed, using fallback", "key", key, "error", err)
		s.fallback.Set(ctx, key, data)
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if s.breaker.Allow() {
		if err := s.client.GetClient().Del(ctx, keyPrefix+key).Err(); !s.record(err) {
			slog.Warn("Redis cache delete failed", "key", key, "error", err)
		}
	}
	s.fallback.Delete(ctx, key)
}

// Clear removes every key under the cache prefix.
func (s *RedisStore) Clear(ctx context.Context) {
	defer s.fallback.Clear(ctx)
	if !s.breaker.Allow() {
		return
	}

	rdb := s.client.GetClient()
	iter := rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); !s.record(err) {
		slog.Warn("Redis cache scan failed", "error", err)
		return
	}
	if len(keys) > 0 {
		if err := rdb.Del(ctx, keys...).Err(); !s.record(err) {
			slog.Warn("Redis cache clear failed", "error", err)
		}
	}
}

func (s *RedisStore) Stats() map[string]interface{} {
	return map[string]interface{}{
		"backend":      "redis",
		"ttl_seconds":  s.ttl.Seconds(),
		"redis_errors": s.redisErrors.Load(),
		"breaker":      s.breaker.Stats(),
		"redis_pool":   s.client.GetPoolStats(),
		"fallback":     s.fallback.Stats(),
	}
}

// Close stops the fallback cache cleanup.
func (s *RedisStore) Close() {
	s.fallback.Close()
}
