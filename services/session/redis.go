// Package sessionsvc stores revoked token ids.
package sessionsvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/etarip26/EduConnect/core"
)

const keyPrefix = "auth:revoked:"

type RedisStore struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

var _ core.SessionStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, cb *gobreaker.CircuitBreaker) *RedisStore {
	return &RedisStore{client: client, cb: cb}
}

func (s *RedisStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, keyPrefix+jti, "1", ttl).Err()
	})
	return errors.Wrap(err, "revoking token")
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.client.Exists(ctx, keyPrefix+jti).Result()
	})
	if err != nil {
		return false, errors.Wrap(err, "checking token revocation")
	}
	return res.(int64) > 0, nil
}
