package hintservice

import (
	"context"
	"time"

	hintdomain "github.com/medusa-ctf/medusa-backend/app/modules/hint/domain"
)

// Service manages hint unlocks and the penalties they carry.
type Service interface {
	Unlock(ctx context.Context, teamCode string, claimRound int, bucket string, number int) (*UnlockResult, error)
	List(ctx context.Context, teamCode string, claimRound int) ([]BucketView, error)
	// SumPenalty totals the frozen costs of a team's unlocks in bucket made
	// at or before asOf.
	SumPenalty(ctx context.Context, teamCode string, round int, bucket string, asOf time.Time) (float64, error)
}

// UnlockResult carries the hint text and the bucket's running penalty.
type UnlockResult struct {
	Hint            hintdomain.Hint `json:"hint"`
	AlreadyUnlocked bool            `json:"alreadyUnlocked"`
	TotalPenalty    float64         `json:"totalPenalty"`
}

// BucketView is a team's progress through one bucket. Next omits the text
// of the hint that has not been paid for.
type BucketView struct {
	Bucket       hintdomain.Bucket `json:"bucket"`
	Unlocked     []hintdomain.Hint `json:"unlocked"`
	Next         *hintdomain.Hint  `json:"next,omitempty"`
	TotalPenalty float64           `json:"totalPenalty"`
}
