package memory

import (
	"context"

	"parish_portal/internal/storage"

	"github.com/patrickmn/go-cache"
)

// Storage KV в памяти процесса; данные живут до перезапуска.
type Storage struct {
	c *cache.Cache
}

func New() *Storage {
	return &Storage{c: cache.New(cache.NoExpiration, 0)}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, storage.ErrKeyNotFound
	}

	b := v.([]byte)
	return append([]byte(nil), b...), nil
}

func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.c.Set(key, append([]byte(nil), value...), cache.NoExpiration)
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}
