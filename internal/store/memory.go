package store

import (
	"context"
	"sync"

	"github.com/spigell/teacherlink-search/internal/filtering"
)

// Memory keeps criteria for the lifetime of the process.
type Memory struct {
	mu       sync.RWMutex
	criteria *filtering.Criteria
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (filtering.Criteria, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.criteria == nil {
		return filtering.Criteria{}, ErrNotFound
	}
	return *m.criteria, nil
}

func (m *Memory) Save(_ context.Context, criteria filtering.Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.criteria = &criteria
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.criteria = nil
	return nil
}
