package storage

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound          = errors.New("key not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrCapacityExceeded     = errors.New("event capacity exceeded")
	ErrInvalidData          = errors.New("invalid registrations data")
)

// KV минимальное хранилище ключ-значение для локального режима регистраций.
// Реализации: memory (go-cache), redis, sqlite.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
