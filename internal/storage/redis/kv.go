package redis

import (
	"context"
	"errors"
	"fmt"

	"parish_portal/internal/storage"

	goredis "github.com/redis/go-redis/v9"
)

// KV хранит значения в redis без TTL; prefix отделяет ключи приложения.
type KV struct {
	client goredis.Cmdable
	prefix string
}

func NewKV(client goredis.Cmdable, prefix string) *KV {
	return &KV{client: client, prefix: prefix}
}

func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.redis.Get"

	val, err := kv.client.Get(ctx, kv.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage.redis.Set"

	if err := kv.client.Set(ctx, kv.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	const op = "storage.redis.Delete"

	if err := kv.client.Del(ctx, kv.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (kv *KV) key(key string) string {
	return kv.prefix + key
}
