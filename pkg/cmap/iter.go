// Package cmap provides a sharded concurrent map.
package cmap

// Op tells Compute what to do with the value its callback returns.
type Op int

const (
	// Keep leaves the map unchanged.
	Keep Op = iota

	// Store writes the returned value.
	Store

	// Remove deletes the key.
	Remove
)

// Compute runs fn under the shard write lock for key. fn receives the
// current value and whether it exists; its returned Op decides the write.
// Compute returns the value now stored and whether the key is present.
func (m *Map[K, V]) Compute(key K, fn func(value V, exists bool) (V, Op)) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	existing, exists := shard.items[key]
	next, op := fn(existing, exists)

	switch op {
	case Store:
		shard.items[key] = next
		return next, true
	case Remove:
		delete(shard.items, key)
		var zero V
		return zero, false
	default:
		return existing, exists
	}
}

// SetIfAbsent sets the value only if the key does not exist.
// Returns true if the value was set.
func (m *Map[K, V]) SetIfAbsent(key K, value V) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.items[key]; ok {
		return false
	}
	shard.items[key] = value
	return true
}

// Pop removes a key and returns its value.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	val, ok := shard.items[key]
	if ok {
		delete(shard.items, key)
	}
	return val, ok
}

// Range iterates over all key-value pairs under shard read locks.
// The callback returns false to stop iteration and must not call back into
// the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// DeleteIf removes every entry for which pred returns true and returns the
// number removed. Each shard is write-locked while it is scanned.
func (m *Map[K, V]) DeleteIf(pred func(key K, value V) bool) int {
	removed := 0
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if pred(k, v) {
				delete(shard.items, k)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}
