package kvstore

import "sync"

// MemoryStore is an in-memory Store for tests and non-persistent contexts.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns the stored value for key.
func (ms *MemoryStore) Get(key string) ([]byte, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	v, ok := ms.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set writes the value for key.
func (ms *MemoryStore) Set(key string, value []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	ms.values[key] = v
	return nil
}

// Delete removes the value for key.
func (ms *MemoryStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.values, key)
	return nil
}
