package storage

import (
	"database/sql"
	"sort"
	"sync"
)

// MockRepository is an in-memory Repository for tests and for running
// without a database file.
type MockRepository struct {
	mu      sync.Mutex
	records map[string]*ReceiptRecord

	SaveErr error
}

var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates an empty in-memory repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{records: make(map[string]*ReceiptRecord)}
}

func (m *MockRepository) SaveReceipt(record *ReceiptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *MockRepository) GetReceipt(id string) (*ReceiptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

func (m *MockRepository) ListReceipts(limit int) ([]ReceiptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}

	records := make([]ReceiptRecord, 0, len(m.records))
	for _, record := range m.records {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &Stats{BySource: make(map[string]int64)}
	for _, record := range m.records {
		stats.TotalReceipts++
		stats.TotalCents += record.OriginalTotal
		stats.BySource[record.Source]++
	}
	return stats, nil
}

func (m *MockRepository) Close() error {
	return nil
}
