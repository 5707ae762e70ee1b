package cache

import (
	"context"
	"time"
)

// BytesCache is the minimal cache contract the services rely on. A nil cache
// is always allowed; callers treat caching as best-effort.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
