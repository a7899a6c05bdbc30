package submissiondb

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/uptrace/bun"
)

type memTxKey struct{}

// memTx buffers the writes of one scope until it commits.
type memTx struct {
	inserts []SubmissionAttempt
	updates map[uuid.UUID]SubmissionAttempt
}

// MemoryRepository is an in-process attempt ledger for tests and single-node
// deployments without Postgres.
type MemoryRepository struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]SubmissionAttempt

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewMemoryRepository creates an empty in-memory ledger.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		attempts: make(map[uuid.UUID]SubmissionAttempt),
		locks:    make(map[string]chan struct{}),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) scopeLock(key string) chan struct{} {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		m.locks[key] = l
	}
	return l
}

func (m *MemoryRepository) RunInScope(ctx context.Context, teamCode string, key submissiondomain.ChallengeKey, fn ScopeFunc) error {
	lock := m.scopeLock(scopeLockKey(teamCode, key))
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrScopeBusy, ctx.Err())
	}
	defer func() { <-lock }()

	tx := &memTx{updates: make(map[uuid.UUID]SubmissionAttempt)}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx), nil); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *MemoryRepository) commit(tx *memTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range tx.inserts {
		if m.conflictsLocked(a, nil) {
			return ErrDuplicateKey
		}
	}
	for _, a := range tx.inserts {
		m.attempts[a.ID] = a
	}
	for id, a := range tx.updates {
		m.attempts[id] = a
	}
	return nil
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// view returns committed rows overlaid with the scope's pending writes.
func (m *MemoryRepository) view(ctx context.Context) []SubmissionAttempt {
	m.mu.RLock()
	rows := make([]SubmissionAttempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		rows = append(rows, a)
	}
	m.mu.RUnlock()

	tx := txFrom(ctx)
	if tx == nil {
		return rows
	}
	for i, a := range rows {
		if u, ok := tx.updates[a.ID]; ok {
			rows[i] = u
		}
	}
	return append(rows, tx.inserts...)
}

func sameKey(a, b SubmissionAttempt) bool {
	return a.TeamCode == b.TeamCode && a.FlagText == b.FlagText && a.Round == b.Round && a.ChallengeType == b.ChallengeType
}

func (m *MemoryRepository) conflictsLocked(a SubmissionAttempt, pending []SubmissionAttempt) bool {
	for _, existing := range m.attempts {
		if sameKey(existing, a) {
			return true
		}
	}
	for _, p := range pending {
		if sameKey(p, a) {
			return true
		}
	}
	return false
}

func inScope(a SubmissionAttempt, teamCode string, round int, types []submissiondomain.ChallengeType) bool {
	return a.TeamCode == teamCode && a.Round == round && slices.Contains(types, a.ChallengeType)
}

func (m *MemoryRepository) CountAttempts(ctx context.Context, _ bun.IDB, teamCode string, round int, types []submissiondomain.ChallengeType) (int, error) {
	count := 0
	for _, a := range m.view(ctx) {
		if inScope(a, teamCode, round, types) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryRepository) FindDuplicate(ctx context.Context, _ bun.IDB, teamCode, flag string, round int, types []submissiondomain.ChallengeType) (*SubmissionAttempt, error) {
	var found *SubmissionAttempt
	for _, a := range m.view(ctx) {
		if !inScope(a, teamCode, round, types) || a.FlagText != flag {
			continue
		}
		if found == nil || a.SubmittedAt.Before(found.SubmittedAt) {
			match := a
			found = &match
		}
	}
	return found, nil
}

func (m *MemoryRepository) InsertAttempt(ctx context.Context, _ bun.IDB, attempt *SubmissionAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	tx := txFrom(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx == nil {
		if m.conflictsLocked(*attempt, nil) {
			return ErrDuplicateKey
		}
		m.attempts[attempt.ID] = *attempt
		return nil
	}
	if m.conflictsLocked(*attempt, tx.inserts) {
		return ErrDuplicateKey
	}
	tx.inserts = append(tx.inserts, *attempt)
	return nil
}

func (m *MemoryRepository) UpdateScore(ctx context.Context, _ bun.IDB, attempt *SubmissionAttempt) error {
	tx := txFrom(ctx)
	if tx != nil {
		for i, p := range tx.inserts {
			if p.ID == attempt.ID {
				tx.inserts[i] = *attempt
				return nil
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[attempt.ID]; !ok {
		return ErrNotFound
	}
	if tx != nil {
		tx.updates[attempt.ID] = *attempt
		return nil
	}
	m.attempts[attempt.ID] = *attempt
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, _ bun.IDB, id uuid.UUID) (*SubmissionAttempt, error) {
	for _, a := range m.view(ctx) {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListByTeam(ctx context.Context, _ bun.IDB, teamCode string) ([]SubmissionAttempt, error) {
	var out []SubmissionAttempt
	for _, a := range m.view(ctx) {
		if a.TeamCode == teamCode {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		if out[i].ChallengeType != out[j].ChallengeType {
			return out[i].ChallengeType < out[j].ChallengeType
		}
		return out[i].AttemptNumber < out[j].AttemptNumber
	})
	return out, nil
}

func (m *MemoryRepository) ListAll(ctx context.Context, _ bun.IDB) ([]SubmissionAttempt, error) {
	out := m.view(ctx)
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}
