package contenttypes

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*ContentType
	byAlias map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory content type repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[uuid.UUID]*ContentType),
		byAlias: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, ct *ContentType) (*ContentType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneContentType(ct)
	m.byID[cloned.ID] = cloned
	m.byAlias[strings.ToLower(cloned.Alias)] = cloned.ID
	return cloneContentType(cloned), nil
}

func (m *memoryRepository) Update(_ context.Context, ct *ContentType) (*ContentType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[ct.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "content_type", Key: ct.ID.String()}
	}
	delete(m.byAlias, strings.ToLower(existing.Alias))
	cloned := cloneContentType(ct)
	m.byID[cloned.ID] = cloned
	m.byAlias[strings.ToLower(cloned.Alias)] = cloned.ID
	return cloneContentType(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*ContentType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "content_type", Key: id.String()}
	}
	return cloneContentType(record), nil
}

func (m *memoryRepository) GetByAlias(_ context.Context, alias string) (*ContentType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byAlias[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return nil, &NotFoundError{Resource: "content_type", Key: alias}
	}
	return cloneContentType(m.byID[id]), nil
}

func (m *memoryRepository) List(_ context.Context) ([]*ContentType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*ContentType, 0, len(m.byID))
	for _, record := range m.byID {
		records = append(records, cloneContentType(record))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Alias < records[j].Alias })
	return records, nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "content_type", Key: id.String()}
	}
	delete(m.byAlias, strings.ToLower(existing.Alias))
	delete(m.byID, id)
	return nil
}
