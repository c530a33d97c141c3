package tokenstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/aliqadomi777/front-end-lms/core/session"
)

// RedisStore keeps the token under a single redis key. JWT tokens expire with their `exp` claim.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisStore(rdb redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = Key
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (rs *RedisStore) Get(ctx context.Context) (string, error) {
	token, err := rs.rdb.Get(ctx, rs.key).Result()
	if err == redis.Nil || (err == nil && token == "") {
		return "", session.ErrNoToken
	}
	if err != nil {
		return "", errors.Wrap(err, "redis get token")
	}
	return token, nil
}

// Set stores token. An already expired token empties the slot instead.
func (rs *RedisStore) Set(ctx context.Context, token string) error {
	d, ok := ttl(token)
	if ok && d == 0 {
		return rs.Clear(ctx)
	}
	return errors.Wrap(rs.rdb.Set(ctx, rs.key, token, d).Err(), "redis set token")
}

func (rs *RedisStore) Clear(ctx context.Context) error {
	return errors.Wrap(rs.rdb.Del(ctx, rs.key).Err(), "redis del token")
}
