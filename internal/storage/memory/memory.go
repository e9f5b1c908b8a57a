// Package memory is a volatile storage.Storage kept in process memory.
// It is the default driver for local runs and the adapter used by tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
)

var _ storage.Storage = (*Memory)(nil)

// Memory stores records in a map and remembers insertion order.
type Memory struct {
	mu      sync.Mutex
	records map[string]types.Student
	order   []string
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{records: make(map[string]types.Student)}
}

func (m *Memory) LoadAll(_ context.Context) ([]types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	students := make([]types.Student, 0, len(m.order))
	for _, id := range m.order {
		students = append(students, m.records[id])
	}
	return students, nil
}

func (m *Memory) Insert(_ context.Context, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student.ID = uuid.NewString()
	m.records[student.ID] = student
	m.order = append(m.order, student.ID)
	return student, nil
}

func (m *Memory) Replace(_ context.Context, id string, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return types.Student{}, fmt.Errorf("Replace: %w: %s", storage.ErrNotFound, id)
	}
	student.ID = id
	m.records[id] = student
	return student, nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("Remove: %w: %s", storage.ErrNotFound, id)
	}
	delete(m.records, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
