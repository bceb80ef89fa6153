package hooking

import (
	"sync"
)

// A CountKey identifies the events counted by a CountTracer.
type CountKey struct {
	Domain string
	Pos    string
}

// CountTracer counts how many times each hook position is reached in each
// domain.
type CountTracer struct {
	lock   sync.Mutex
	keys   []CountKey
	counts map[CountKey]uint64
}

// NewCountTracer creates a new CountTracer
func NewCountTracer() *CountTracer {
	return &CountTracer{
		counts: make(map[CountKey]uint64),
	}
}

// Func counts the event.
func (t *CountTracer) Func(ctx HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	key := CountKey{Domain: ctx.Domain.Name(), Pos: ctx.Pos.Name}

	_, ok := t.counts[key]
	if !ok {
		t.keys = append(t.keys, key)
	}

	t.counts[key]++
}

// Keys returns the keys in the order they were first seen.
func (t *CountTracer) Keys() []CountKey {
	t.lock.Lock()
	defer t.lock.Unlock()

	keys := make([]CountKey, len(t.keys))
	copy(keys, t.keys)

	return keys
}

// Count returns the number of events recorded with the key.
func (t *CountTracer) Count(key CountKey) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[key]
}
