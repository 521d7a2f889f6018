package testutil

import "sync"

// MemorySessions is an in-memory config.SessionStore.
type MemorySessions struct {
	mu      sync.Mutex
	secret  string
	SaveErr error
}

func (m *MemorySessions) LoadSession() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secret, nil
}

func (m *MemorySessions) SaveSession(secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.secret = secret
	return nil
}

func (m *MemorySessions) RemoveSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = ""
	return nil
}

// Secret returns the stored secret.
func (m *MemorySessions) Secret() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secret
}
