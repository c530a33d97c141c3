// Package tokenstore provides the persisted bearer-token slot used by session.Store.
package tokenstore

import (
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/session"
)

// Key is the name of the slot holding the bearer token.
const Key = "token"

var (
	_ session.TokenStore = (*FileStore)(nil)
	_ session.TokenStore = (*RedisStore)(nil)
	_ session.TokenStore = (*MemoryStore)(nil)
)

// Open returns the token store selected by conf.Storage.Kind along with a func releasing its resources.
func Open(conf *core.Config) (session.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch conf.Storage.Kind {
	case core.StorageFile, "":
		return NewFileStore(conf.Storage.TokenFile), noop, nil
	case core.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.Storage.RedisAddr,
			Password: conf.Storage.RedisPassword,
			DB:       conf.Storage.RedisDB,
		})
		return NewRedisStore(rdb, conf.Storage.RedisKey), rdb.Close, nil
	case core.StorageMemory:
		return NewMemoryStore(), noop, nil
	}
	return nil, nil, errors.Errorf("unknown token storage %q", conf.Storage.Kind)
}

// ttl returns how long token stays usable. ok is false when token has no readable expiry.
// An expired token yields ok with a zero duration.
func ttl(token string) (d time.Duration, ok bool) {
	exp, ok := session.TokenExpiry(token)
	if !ok {
		return 0, false
	}
	if d = time.Until(exp); d > 0 {
		return d, true
	}
	return 0, true
}
