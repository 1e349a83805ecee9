package history

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory only.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record // Newest first
	max     int
}

// NewMemoryStore creates an empty MemoryStore bounded to MaxRecords.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{max: MaxRecords}
}

// Append adds record as the newest entry and evicts the oldest beyond the bound.
func (m *MemoryStore) Append(_ context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append([]Record{record}, m.records...)
	if len(m.records) > m.max {
		m.records = m.records[:m.max]
	}

	return nil
}

// List returns a copy of the records, newest first.
func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Record(nil), m.records...), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
