// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// RWGuard publishes a value between goroutines. Every mutation bumps a
// version so readers can tell whether what they hold is stale.
type RWGuard[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *RWGuard[T] {
	return &RWGuard[T]{value: initial}
}

// Get returns the value (T should be a value type or treated as immutable).
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Version reports how many times the value has been replaced or updated.
func (g *RWGuard[T]) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Set replaces the value.
func (g *RWGuard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
	g.version++
}
