package kvstore

import "sync"

// MemoryStore keeps values in process memory. It is used in tests and as the
// degraded store when the on-disk database cannot be opened.
type MemoryStore struct {
	mu     sync.Mutex
	quota  int64
	used   int64
	values map[string]string
}

// NewMemoryStore creates an empty store. A quota <= 0 means unlimited.
func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{quota: quota, values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	if old, ok := m.values[key]; ok {
		used -= entrySize(key, old)
	}
	used += entrySize(key, value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.values[key] = value
	m.used = used
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.values[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.values, key)
	}
	return nil
}
