// Package cmap provides a sharded concurrent map.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard is guarded by its own RWMutex. Compute runs a callback
// under the shard write lock, which gives callers a per-key atomic
// read-modify-write (or read-modify-delete) without a global lock.
//
// Usage:
//
//	m := cmap.New[string, *domain.Link]()
//	m.SetIfAbsent(hash, link)
//	m.Compute(hash, func(l *domain.Link, ok bool) (*domain.Link, cmap.Op) {
//		if !ok {
//			return nil, cmap.Keep
//		}
//		l.AccessCount++
//		return l, cmap.Store
//	})
//
// Range and DeleteIf lock one shard at a time, so they do not observe a
// single consistent snapshot of the whole map.
//
// @adr AD-0102
package cmap
