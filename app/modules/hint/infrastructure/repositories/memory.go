package hintdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// MemoryRepository keeps hint unlocks in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	unlocks map[string][]HintUnlock // team|bucket -> unlocks in order

	lockMu sync.Mutex
	locks  map[string]chan struct{}
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		unlocks: make(map[string][]HintUnlock),
		locks:   make(map[string]chan struct{}),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func bucketKey(teamCode, bucket string) string {
	return teamCode + "|" + bucket
}

func (m *MemoryRepository) lockFor(key string) chan struct{} {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		m.locks[key] = l
	}
	return l
}

// RunInBucket holds a per-(team, bucket) lock for fn and restores the
// bucket's previous unlocks when fn fails.
func (m *MemoryRepository) RunInBucket(ctx context.Context, teamCode, bucket string, fn BucketFunc) error {
	key := bucketKey(teamCode, bucket)
	l := m.lockFor(key)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l }()

	m.mu.Lock()
	snapshot := append([]HintUnlock(nil), m.unlocks[key]...)
	m.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		m.mu.Lock()
		m.unlocks[key] = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryRepository) ListByTeam(_ context.Context, _ bun.IDB, teamCode string) ([]HintUnlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []HintUnlock
	for _, list := range m.unlocks {
		for _, u := range list {
			if u.TeamCode == teamCode {
				out = append(out, u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bucket != out[j].Bucket {
			return out[i].Bucket < out[j].Bucket
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (m *MemoryRepository) ListByBucket(_ context.Context, _ bun.IDB, teamCode, bucket string) ([]HintUnlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HintUnlock(nil), m.unlocks[bucketKey(teamCode, bucket)]...), nil
}

func (m *MemoryRepository) Insert(_ context.Context, _ bun.IDB, unlock *HintUnlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := bucketKey(unlock.TeamCode, unlock.Bucket)
	for _, u := range m.unlocks[key] {
		if u.Number == unlock.Number {
			return ErrDuplicateKey
		}
	}
	list := append(m.unlocks[key], *unlock)
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	m.unlocks[key] = list
	return nil
}

func (m *MemoryRepository) SumCost(_ context.Context, _ bun.IDB, teamCode, bucket string, asOf time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, u := range m.unlocks[bucketKey(teamCode, bucket)] {
		if !asOf.IsZero() && u.UnlockedAt.After(asOf) {
			continue
		}
		total += u.Cost
	}
	return total, nil
}
