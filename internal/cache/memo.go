package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo fronts a loader with an LRU and collapses concurrent loads of the
// same key into one call.
type Memo[T any] struct {
	lru   *LRU[T]
	group singleflight.Group
	keep  func(T) bool
}

// NewMemo builds a memo of at most size entries living ttl. keep decides
// whether a loaded value is stored; nil keeps everything.
func NewMemo[T any](size int, ttl time.Duration, keep func(T) bool) *Memo[T] {
	if keep == nil {
		keep = func(T) bool { return true }
	}
	return &Memo[T]{lru: NewLRU[T](size, ttl), keep: keep}
}

// GetOrLoad returns the cached value for key or calls load once for all
// concurrent callers asking for it. The shared load keeps ctx's values but
// not its cancellation, so one caller giving up does not fail the others.
func (m *Memo[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) T) T {
	if v, ok := m.lru.Get(key); ok {
		return v
	}
	v, _, _ := m.group.Do(key, func() (any, error) {
		v := load(context.WithoutCancel(ctx))
		if m.keep(v) {
			m.lru.Set(key, v)
		}
		return v, nil
	})
	return v.(T)
}

// Forget drops key, e.g. after the entity it describes was created or removed.
func (m *Memo[T]) Forget(key string) {
	m.lru.Delete(key)
}

// Purge drops every entry.
func (m *Memo[T]) Purge() {
	m.lru.Purge()
}

// CleanExpired lets a Manager clean the memo.
func (m *Memo[T]) CleanExpired() int {
	return m.lru.CleanExpired()
}
