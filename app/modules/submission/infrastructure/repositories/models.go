package submissiondb

import (
	"time"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/uptrace/bun"
)

// SubmissionAttempt is one row of the attempt ledger.
type SubmissionAttempt struct {
	bun.BaseModel  `bun:"table:submission_attempts,alias:sa"`
	ID             uuid.UUID                      `bun:"id,pk,type:uuid" json:"id"`
	TeamCode       string                         `bun:"team_code,notnull" json:"teamCode"`
	Round          int                            `bun:"round,notnull" json:"round"`
	ChallengeType  submissiondomain.ChallengeType `bun:"challenge_type,notnull,default:''" json:"challengeType"`
	FlagText       string                         `bun:"flag,notnull" json:"-"`
	AttemptNumber  int                            `bun:"attempt_number,notnull" json:"attemptNumber"`
	IsCorrect      bool                           `bun:"is_correct,notnull" json:"isCorrect"`
	PointDeduction float64                        `bun:"point_deduction,notnull" json:"pointDeduction"`
	Points         float64                        `bun:"points,notnull" json:"points"`
	BasePoints     float64                        `bun:"base_points,notnull" json:"basePoints"`
	TimeMultiplier float64                        `bun:"time_multiplier,notnull" json:"timeMultiplier"`
	HintPenalty    float64                        `bun:"hint_penalty,notnull" json:"hintPenalty"`
	SubmittedAt    time.Time                      `bun:"submitted_at,notnull" json:"submittedAt"`
	Verified       bool                           `bun:"verified,notnull" json:"verified"`
	VerifiedAt     *time.Time                     `bun:"verified_at,nullzero" json:"verifiedAt,omitempty"`
	CreatedAt      time.Time                      `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// ApplyBreakdown copies the score of a correct attempt onto the row.
func (a *SubmissionAttempt) ApplyBreakdown(b submissiondomain.Breakdown) {
	a.Points = b.FinalPoints
	a.BasePoints = b.BasePoints
	a.TimeMultiplier = b.TimeMultiplier
	a.HintPenalty = b.HintPenalty
}

// ClearScore zeroes the score fields of an incorrect attempt.
func (a *SubmissionAttempt) ClearScore() {
	a.Points = 0
	a.BasePoints = 0
	a.TimeMultiplier = 0
	a.HintPenalty = 0
}
