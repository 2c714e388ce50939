package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Tiered puts a small in-process LRU in front of a persisted Store. Datasets
// for popular cities are re-requested often; the front tier spares the
// backing store those reads. Cleared entries are dropped from both tiers.
type Tiered struct {
	mu    sync.Mutex
	front *lru.Cache[string, []byte]
	back  Store
}

func NewTiered(back Store, size int) *Tiered {
	if size <= 0 {
		size = 256
	}
	front, _ := lru.New[string, []byte](size)
	return &Tiered{front: front, back: back}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	t.mu.Lock()
	if v, ok := t.front.Get(key); ok {
		t.mu.Unlock()
		return v, true, nil
	}
	t.mu.Unlock()

	v, ok, err := t.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	t.mu.Lock()
	t.front.Add(key, v)
	t.mu.Unlock()
	return v, true, nil
}

func (t *Tiered) Put(ctx context.Context, key string, payload []byte) error {
	if err := t.back.Put(ctx, key, payload); err != nil {
		return err
	}
	t.mu.Lock()
	t.front.Add(key, payload)
	t.mu.Unlock()
	return nil
}

func (t *Tiered) Clear(ctx context.Context) error {
	t.mu.Lock()
	t.front.Purge()
	t.mu.Unlock()
	return t.back.Clear(ctx)
}
