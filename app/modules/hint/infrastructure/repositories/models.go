package hintdb

import (
	"time"

	"github.com/uptrace/bun"
)

// HintUnlock records that a team paid for a hint. Cost is frozen at unlock time.
type HintUnlock struct {
	bun.BaseModel `bun:"table:hint_unlocks,alias:hu"`
	TeamCode      string    `bun:"team_code,pk" json:"teamCode"`
	Bucket        string    `bun:"bucket,pk" json:"bucket"`
	Number        int       `bun:"number,pk" json:"number"`
	Cost          float64   `bun:"cost,notnull" json:"cost"`
	UnlockedAt    time.Time `bun:"unlocked_at,notnull" json:"unlockedAt"`
}
