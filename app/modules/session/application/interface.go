package sessionservice

import (
	"context"
	"time"
)

// Service manages when each team started each round.
type Service interface {
	// StartRound records now as the team's start unless one already exists.
	StartRound(ctx context.Context, teamCode string, claimRound, round int) (*SessionView, error)
	GetSession(ctx context.Context, teamCode string, claimRound, round int) (*SessionView, error)
	// GetStart reports the recorded start, or false when the team never started.
	GetStart(ctx context.Context, teamCode string, round int) (time.Time, bool, error)
	OverrideStart(ctx context.Context, req OverrideRequest) (*SessionView, error)
}

// RecalculationScheduler rescores a team's round after its start moved.
type RecalculationScheduler interface {
	ScheduleRecalculation(ctx context.Context, teamCode string, round int) error
}

// SessionView is what clients see of a round session.
type SessionView struct {
	TeamCode       string     `json:"teamCode"`
	Round          int        `json:"round"`
	StartedAt      time.Time  `json:"startedAt"`
	ElapsedSeconds int64      `json:"elapsedSeconds"`
	OverriddenAt   *time.Time `json:"overriddenAt,omitempty"`
	// Rescheduled is set on overrides when rescoring was queued.
	Rescheduled bool `json:"rescheduled,omitempty"`
}

// OverrideRequest moves a team's round start. StartedAt is RFC3339 or a
// natural language phrase read in Timezone.
type OverrideRequest struct {
	TeamCode  string `json:"-"`
	Round     int    `json:"-"`
	StartedAt string `json:"startedAt"`
	Timezone  string `json:"timezone,omitempty"`
}
