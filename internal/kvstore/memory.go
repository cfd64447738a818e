package kvstore

import (
	"context"
	"sync"
)

// Memory is a map-backed store for dev and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string

	// FailNext, when set, makes the next mutating call return the error
	// and clears it. Used by tests to simulate store outages.
	FailNext error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the stored value or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.data[key] = value
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}
