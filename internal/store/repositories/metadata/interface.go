package metadata

import (
	"context"
)

// Repository is a small key/value side table holding installation state:
// the key-derivation salt and iteration count, the keycheck marker, the
// wrapped-key record, the cached remote file id and the last sync time.
type Repository interface {
	// Get returns the value for key, or nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
