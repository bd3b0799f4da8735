// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package syncutil

// Map is a map guarded by a RWMutex. The zero value is ready to use. Unlike
// sync.Map it is typed and supports Clear, which the execution caches need.
type Map[K comparable, V any] struct {
	mu struct {
		RWMutex
		m map[K]V
	}
}

// Load returns the value stored under key, if any.
func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok = m.mu.m[key]
	return value, ok
}

// Store sets the value for key, overwriting any previous value.
func (m *Map[K, V]) Store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mu.m == nil {
		m.mu.m = make(map[K]V)
	}
	m.mu.m[key] = value
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores and returns value. loaded reports whether the value was present.
func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.mu.m[key]; ok {
		return v, true
	}
	if m.mu.m == nil {
		m.mu.m = make(map[K]V)
	}
	m.mu.m[key] = value
	return value, false
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mu.m)
}

// Clear removes every entry.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mu.m = nil
}

// Range calls f for every entry until f returns false. f must not modify the
// map.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.mu.m {
		if !f(k, v) {
			return
		}
	}
}
