package answerkey

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu        sync.RWMutex
	workbooks map[string]Workbook
	records   map[string][]Record
}

func NewInMemoryStore() Store {
	return &memoryStore{
		workbooks: map[string]Workbook{},
		records:   map[string][]Record{},
	}
}

func (m *memoryStore) PutWorkbook(_ context.Context, wb Workbook, records []Record) (int, error) {
	return m.put(wb, records, false)
}

func (m *memoryStore) ReplaceWorkbook(_ context.Context, wb Workbook, records []Record) (int, error) {
	return m.put(wb, records, true)
}

func (m *memoryStore) put(wb Workbook, records []Record, replace bool) (int, error) {
	if err := validateAll(wb, records); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.workbooks[wb.ID]; ok {
		wb.CreatedAt = old.CreatedAt
	} else {
		wb.CreatedAt = time.Now().Unix()
	}
	m.workbooks[wb.ID] = wb

	var existing []Record
	if !replace {
		existing = m.records[wb.ID]
	}
	index := make(map[string]int, len(existing))
	for i, r := range existing {
		index[r.ID] = i
	}
	for _, r := range records {
		r.WorkbookID = wb.ID
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if i, ok := index[r.ID]; ok {
			existing[i] = r
			continue
		}
		index[r.ID] = len(existing)
		existing = append(existing, r)
	}
	m.records[wb.ID] = existing
	return len(records), nil
}

func (m *memoryStore) GetWorkbook(_ context.Context, id string) (Workbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wb, ok := m.workbooks[id]
	if !ok {
		return Workbook{}, ErrNotFound
	}
	return wb, nil
}

func (m *memoryStore) ListRecords(_ context.Context, workbookID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.workbooks[workbookID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]Record, len(m.records[workbookID]))
	copy(out, m.records[workbookID])
	return out, nil
}

func (m *memoryStore) DeleteWorkbook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workbooks[id]; !ok {
		return ErrNotFound
	}
	delete(m.workbooks, id)
	delete(m.records, id)
	return nil
}
