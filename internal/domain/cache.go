package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the port for the redis adapter. Values are serialized strings;
// callers own the encoding.
type Cache interface {
	// Get returns ErrCacheMiss when the key is not found.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Ping checks the health of the cache service.
	Ping(ctx context.Context) error
}
