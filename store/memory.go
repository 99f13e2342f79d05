package store

import (
	"context"
	"sync"
)

// Memory defines a public type used by MaxiTaxi client APIs.
//
// Memory keeps the session pair in process memory. It is the default store
// when the builder is given nothing else; sessions do not survive restarts.
type Memory struct {
	mu     sync.Mutex
	token  string
	roleID int
}

// NewMemory describes the newmemory operation and its observable behavior.
//
// NewMemory does not mutate shared global state and the returned store is
// safe for concurrent use.
func NewMemory() *Memory {
	return &Memory{}
}

// Token describes the token operation and its observable behavior.
func (m *Memory) Token(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// SetToken describes the settoken operation and its observable behavior.
func (m *Memory) SetToken(_ context.Context, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = tok
	return nil
}

// RoleID describes the roleid operation and its observable behavior.
func (m *Memory) RoleID(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roleID, nil
}

// SetRoleID describes the setroleid operation and its observable behavior.
func (m *Memory) SetRoleID(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roleID = id
	return nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear is idempotent.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.roleID = 0
	return nil
}
