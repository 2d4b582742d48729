package cache

import (
	"context"
	"sync"
	"time"
)

// Memo holds a single value for a fixed window. Callers pass the loader on
// each Get; it runs only when the held value is missing or expired.
type Memo[T any] struct {
	TTL time.Duration

	mu      sync.Mutex
	value   T
	expires time.Time
	loaded  bool
	now     func() time.Time
}

// NewMemo returns a memo that keeps values for ttl.
func NewMemo[T any](ttl time.Duration) *Memo[T] {
	return &Memo[T]{TTL: ttl}
}

// Get returns the held value, loading it when expired. hit reports whether
// load was skipped. A failed load leaves the previous state untouched.
func (m *Memo[T]) Get(ctx context.Context, load func(context.Context) (T, error)) (value T, hit bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	if m.loaded && now.Before(m.expires) {
		return m.value, true, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	m.value = v
	m.loaded = true
	m.expires = now.Add(m.TTL)
	return v, false, nil
}

// Invalidate drops the held value.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.value = zero
	m.loaded = false
}

func (m *Memo[T]) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}
