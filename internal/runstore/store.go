// Package runstore holds the contents of sorting runs, addressed by (file, run) index.
package runstore

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when a run has no stored contents.
var ErrNotFound = errors.New("run not found")

// Store is the run arena. Implementations copy on Put and Get so callers never share
// backing arrays with the arena.
type Store interface {
	Put(file, run int, vals []int32) error
	Get(file, run int) ([]int32, error)
	Delete(file, run int) error
	Close() error
}

type key struct{ file, run int }

// Memory is a Store backed by a map.
type Memory struct {
	mu   sync.Mutex
	runs map[key][]int32
}

func NewMemory() *Memory { return &Memory{runs: make(map[key][]int32)} }

func (m *Memory) Put(file, run int, vals []int32) error {
	cp := append([]int32(nil), vals...)
	m.mu.Lock()
	m.runs[key{file, run}] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(file, run int) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.runs[key{file, run}]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]int32(nil), v...), nil
}

func (m *Memory) Delete(file, run int) error {
	m.mu.Lock()
	delete(m.runs, key{file, run})
	m.mu.Unlock()
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

func (m *Memory) Close() error { return nil }
