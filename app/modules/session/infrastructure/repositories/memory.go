package sessiondb

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

// MemoryRepository keeps round sessions in process memory.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]RoundSession
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]RoundSession)}
}

var _ Repository = (*MemoryRepository)(nil)

func key(teamCode string, round int) string {
	return fmt.Sprintf("%s|%d", teamCode, round)
}

func (m *MemoryRepository) StartIfAbsent(_ context.Context, _ bun.IDB, session *RoundSession) (*RoundSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(session.TeamCode, session.Round)
	if existing, ok := m.sessions[k]; ok {
		return &existing, false, nil
	}
	stored := *session
	m.sessions[k] = stored
	return &stored, true, nil
}

func (m *MemoryRepository) Get(_ context.Context, _ bun.IDB, teamCode string, round int) (*RoundSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key(teamCode, round)]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryRepository) Override(_ context.Context, _ bun.IDB, session *RoundSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(session.TeamCode, session.Round)
	stored := *session
	if existing, ok := m.sessions[k]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	m.sessions[k] = stored
	return nil
}
