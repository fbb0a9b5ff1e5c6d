package credentials

import "sync"

// MemoryStore keeps the credential in process memory. It is the default for
// tests and for short-lived invocations that log in on every run.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

func (m *MemoryStore) Set(cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cred
	m.cred = &c
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
