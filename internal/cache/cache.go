// Package cache defines the persisted key-value store used for geocode
// results and fetched feature datasets.
package cache

import "context"

// Store is the cache contract. A Put is atomic with respect to concurrent
// Gets: readers either see the full previous payload or the full new one,
// never a partial write. An absent or empty backing store behaves as all-miss
// and is never an error.
type Store interface {
	// Get returns the payload for key, or ok=false on a miss.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Put stores payload under key, replacing any previous entry.
	Put(ctx context.Context, key string, payload []byte) error

	// Clear removes every entry. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
