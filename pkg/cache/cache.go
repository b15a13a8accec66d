package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Store is the cache contract shared by every backend. Values are
// JSON-serialized; ttl <= 0 means no expiry. Get never fails on a plain
// miss beyond returning ErrMiss, and a value that fails to unmarshal is
// treated as a miss rather than surfaced to the caller.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key builds a namespaced cache key.
func Key(prefix, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}
