package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "coverdesk:profile:"

// RedisStore shares the credential between replicas serving the same client
// profile. This is the production-recommended store when the tier runs behind
// a load balancer without sticky sessions.
type RedisStore struct {
	client  *redis.Client
	profile string
	ttl     time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithTTL expires stored values after d. Zero keeps them until cleared; the
// credential's own expiry still governs validity either way.
func WithTTL(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.ttl = d }
}

func NewRedisStore(client *redis.Client, profile string, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, profile: profile}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) credentialKey() string { return redisKeyPrefix + s.profile + ":credential" }
func (s *RedisStore) roleKey() string       { return redisKeyPrefix + s.profile + ":role" }

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	storeOps.WithLabelValues("get").Inc()
	val, err := s.client.Get(ctx, s.credentialKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, credential string) error {
	storeOps.WithLabelValues("set").Inc()
	if err := s.client.Set(ctx, s.credentialKey(), credential, s.ttl).Err(); err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	storeOps.WithLabelValues("clear").Inc()
	if err := s.client.Del(ctx, s.credentialKey(), s.roleKey()).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Role(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.roleKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}
	return val, nil
}

func (s *RedisStore) SetRole(ctx context.Context, name string) error {
	if name == "" {
		if err := s.client.Del(ctx, s.roleKey()).Err(); err != nil {
			return fmt.Errorf("clear role: %w", err)
		}
		return nil
	}
	if err := s.client.Set(ctx, s.roleKey(), name, s.ttl).Err(); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
