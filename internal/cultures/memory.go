package cultures

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Culture
	byCode map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory culture repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[uuid.UUID]*Culture),
		byCode: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, culture *Culture) (*Culture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneCulture(culture)
	if cloned.ID == uuid.Nil {
		cloned.ID = uuid.New()
	}
	m.byID[cloned.ID] = cloned
	m.byCode[strings.ToLower(cloned.Code)] = cloned.ID
	return cloneCulture(cloned), nil
}

func (m *memoryRepository) Update(_ context.Context, culture *Culture) (*Culture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[culture.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "culture", Key: culture.ID.String()}
	}
	delete(m.byCode, strings.ToLower(existing.Code))
	cloned := cloneCulture(culture)
	m.byID[cloned.ID] = cloned
	m.byCode[strings.ToLower(cloned.Code)] = cloned.ID
	return cloneCulture(cloned), nil
}

func (m *memoryRepository) GetByCode(_ context.Context, code string) (*Culture, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, &NotFoundError{Resource: "culture", Key: code}
	}
	return cloneCulture(m.byID[id]), nil
}

func (m *memoryRepository) List(_ context.Context) ([]*Culture, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Culture, 0, len(m.byID))
	for _, record := range m.byID {
		records = append(records, cloneCulture(record))
	}
	sortCultures(records)
	return records, nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "culture", Key: id.String()}
	}
	delete(m.byCode, strings.ToLower(existing.Code))
	delete(m.byID, id)
	return nil
}

func sortCultures(records []*Culture) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SortOrder != records[j].SortOrder {
			return records[i].SortOrder < records[j].SortOrder
		}
		return records[i].Code < records[j].Code
	})
}
