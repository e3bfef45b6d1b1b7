// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sort"
	"sync"
)

// MemState is a map-backed keyedstore.State. Keys are compared as raw bytes.
type MemState struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailPut, when set, is returned by every Put.
	FailPut error

	puts int
}

// NewMemState returns an empty MemState.
func NewMemState() *MemState {
	return &MemState{data: make(map[string][]byte)}
}

func (m *MemState) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemState) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return m.FailPut
	}
	m.puts++
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemState) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// Puts returns how many writes succeeded.
func (m *MemState) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Keys returns every stored key in byte order.
func (m *MemState) Keys() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}
