package hintdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// BucketFunc runs inside the serialized unit of one (team, bucket).
type BucketFunc func(ctx context.Context, db bun.IDB) error

// Repository persists hint unlocks. A nil db uses the repository's own connection.
type Repository interface {
	// RunInBucket runs fn atomically and exclusively for (team, bucket).
	// An error from fn rolls back its writes.
	RunInBucket(ctx context.Context, teamCode, bucket string, fn BucketFunc) error
	ListByTeam(ctx context.Context, db bun.IDB, teamCode string) ([]HintUnlock, error)
	ListByBucket(ctx context.Context, db bun.IDB, teamCode, bucket string) ([]HintUnlock, error)
	Insert(ctx context.Context, db bun.IDB, unlock *HintUnlock) error
	// SumCost totals unlock costs in bucket up to and including asOf. A zero
	// asOf counts every unlock.
	SumCost(ctx context.Context, db bun.IDB, teamCode, bucket string, asOf time.Time) (float64, error)
}
