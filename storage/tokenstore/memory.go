package tokenstore

import (
	"context"

	"github.com/patrickmn/go-cache"

	"github.com/aliqadomi777/front-end-lms/core/session"
)

// MemoryStore keeps the token for the life of the process.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (ms *MemoryStore) Get(context.Context) (string, error) {
	if v, ok := ms.c.Get(Key); ok {
		if token, ok := v.(string); ok && token != "" {
			return token, nil
		}
	}
	return "", session.ErrNoToken
}

func (ms *MemoryStore) Set(_ context.Context, token string) error {
	d, ok := ttl(token)
	switch {
	case !ok:
		d = cache.NoExpiration
	case d == 0:
		ms.c.Delete(Key)
		return nil
	}
	ms.c.Set(Key, token, d)
	return nil
}

func (ms *MemoryStore) Clear(context.Context) error {
	ms.c.Delete(Key)
	return nil
}
