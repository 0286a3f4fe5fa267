// Package storage defines the persisted key/value state of the client and an
// in-memory implementation.
package storage

import (
	"context"
	"sync"
)

// Keys of the persisted session. They are always written and cleared together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// SessionKeys lists every key owned by the session store.
var SessionKeys = []string{KeyToken, KeyUser}

// Store persists small string values across restarts.
type Store interface {
	// Get returns the values present for keys; missing keys are absent from the map.
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	// Put writes all pairs or none of them.
	Put(ctx context.Context, kv map[string]string) error
	// Delete removes all keys or none of them. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Memory is a process-local Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) Put(_ context.Context, kv map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range kv {
		m.data[k] = v
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
