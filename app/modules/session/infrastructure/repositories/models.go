package sessiondb

import (
	"time"

	"github.com/uptrace/bun"
)

// RoundSession records when a team started a round.
type RoundSession struct {
	bun.BaseModel `bun:"table:round_sessions,alias:rs"`
	TeamCode      string     `bun:"team_code,pk" json:"teamCode"`
	Round         int        `bun:"round,pk" json:"round"`
	StartedAt     time.Time  `bun:"started_at,notnull" json:"startedAt"`
	OverriddenAt  *time.Time `bun:"overridden_at,nullzero" json:"overriddenAt,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"-"`
}
