package teamdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// MemoryRepository keeps teams in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	teams map[string]Team
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{teams: make(map[string]Team)}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) Create(_ context.Context, _ bun.IDB, team *Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[team.Code]; ok {
		return ErrDuplicateKey
	}
	now := time.Now().UTC()
	if team.CreatedAt.IsZero() {
		team.CreatedAt = now
	}
	if team.UpdatedAt.IsZero() {
		team.UpdatedAt = now
	}
	m.teams[team.Code] = *team
	return nil
}

func (m *MemoryRepository) GetByCode(_ context.Context, _ bun.IDB, code string) (*Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *MemoryRepository) List(_ context.Context, _ bun.IDB) ([]Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryRepository) Update(_ context.Context, _ bun.IDB, team *Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.teams[team.Code]
	if !ok {
		return ErrNotFound
	}
	existing.Name = team.Name
	existing.Institution = team.Institution
	existing.Active = team.Active
	existing.UpdatedAt = team.UpdatedAt
	m.teams[team.Code] = existing
	return nil
}
