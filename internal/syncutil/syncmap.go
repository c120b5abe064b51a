// Package syncutil holds small concurrency helpers shared by services.
package syncutil

import "sync"

// SyncMap is a type-safe concurrent map.
type SyncMap[K comparable, V any] struct {
	m  map[K]V
	mu sync.RWMutex
}

// NewSyncMap creates an empty map.
func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{m: make(map[K]V)}
}

// Load returns the value for key and whether it was present.
func (sm *SyncMap[K, V]) Load(key K) (value V, ok bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	value, ok = sm.m[key]
	return
}

// Store sets the value for key.
func (sm *SyncMap[K, V]) Store(key K, value V) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.m[key] = value
}

// CompareAndSwap replaces the value for key with next only while it still
// satisfies same(current). It reports whether the swap happened.
func (sm *SyncMap[K, V]) CompareAndSwap(key K, same func(V) bool, next V) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cur, ok := sm.m[key]
	if !ok || !same(cur) {
		return false
	}
	sm.m[key] = next
	return true
}

// Range calls fn for every entry under the read lock. fn must not call back
// into the map.
func (sm *SyncMap[K, V]) Range(fn func(K, V) bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for k, v := range sm.m {
		if !fn(k, v) {
			return
		}
	}
}

// Delete removes key.
func (sm *SyncMap[K, V]) Delete(key K) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.m, key)
}

// Clear removes every entry.
func (sm *SyncMap[K, V]) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	clear(sm.m)
}

// Len returns the number of entries.
func (sm *SyncMap[K, V]) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.m)
}
