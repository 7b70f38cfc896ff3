package output

import "context"

// StorageChange is delivered to subscribers when a key is written by anyone.
type StorageChange struct {
	Key   string
	Value  []byte
}

// StoragePort is the extension-local key-value store.
type StoragePort interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Subscribe streams changes to key until cancel is called.
	Subscribe(key string) (changes <-chan StorageChange, cancel func())
	Close() error
}
