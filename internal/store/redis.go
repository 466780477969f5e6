package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore handles Redis operations for ephemeral state: pending login codes
// and rate-limit counters. Nothing in here is durable.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware that composes its own
// pipelines (rate limiter).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// otpKey returns the key holding the pending login code hash for a mobile
// number.
func otpKey(mobile string) string {
	return fmt.Sprintf("otp:%s", mobile)
}

// SetOTP stores the hash of a pending login code, replacing any previous one.
func (s *RedisStore) SetOTP(ctx context.Context, mobile, hash string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(mobile), hash, ttl).Err()
}

// GetOTP retrieves the pending login code hash for a mobile number.
// Returns ErrNotFound when no code is pending or it has expired.
func (s *RedisStore) GetOTP(ctx context.Context, mobile string) (string, error) {
	hash, err := s.client.Get(ctx, otpKey(mobile)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// DeleteOTP removes a pending login code. Codes are single-use; this runs on
// every successful verification.
func (s *RedisStore) DeleteOTP(ctx context.Context, mobile string) error {
	return s.client.Del(ctx, otpKey(mobile)).Err()
}
