package submissionservice

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
)

// Service defines the contract for flag submission operations.
type Service interface {
	Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error)
	GetAttemptStatus(ctx context.Context, teamCode string) (*AttemptStatus, error)

	// Admin paths
	UpdateSubmittedAt(ctx context.Context, id uuid.UUID, submittedAt time.Time) (*submissiondb.SubmissionAttempt, error)
	Reverify(ctx context.Context, id uuid.UUID) (*submissiondb.SubmissionAttempt, error)
	RecalculateTeamRound(ctx context.Context, teamCode string, round int) (int, error)
	ListAttempts(ctx context.Context, teamCode string) ([]submissiondb.SubmissionAttempt, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
}

// RoundStartProvider resolves when a team started a round.
type RoundStartProvider interface {
	GetStart(ctx context.Context, teamCode string, round int) (time.Time, bool, error)
}

// HintPenaltyProvider sums the cost of hints a team unlocked in a bucket.
type HintPenaltyProvider interface {
	SumPenalty(ctx context.Context, teamCode string, round int, bucket string, asOf time.Time) (float64, error)
}

// EventPublisher announces committed attempts.
type EventPublisher interface {
	PublishSubmissionRecorded(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error
}

// Identity is the authenticated caller. It only ever comes from a verified token.
type Identity struct {
	TeamCode string
	Round    int
}

// SubmitCommand is one flag submission.
type SubmitCommand struct {
	Identity      Identity
	Flag          string
	Round         int
	ChallengeType submissiondomain.ChallengeType
}

// SubmitResult is returned for every recorded attempt, correct or not.
type SubmitResult struct {
	Success           bool                        `json:"success"`
	Correct           bool                        `json:"correct"`
	AttemptNumber     int                         `json:"attemptNumber"`
	RemainingAttempts int                         `json:"remainingAttempts"`
	Points            float64                     `json:"points"`
	Breakdown         *submissiondomain.Breakdown `json:"breakdown,omitempty"`
}

// ChallengeStatus summarizes one attempt scope.
type ChallengeStatus struct {
	Used        int        `json:"used"`
	Remaining   int        `json:"remaining"`
	MaxAttempts int        `json:"maxAttempts"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Points      float64    `json:"points"`
}

// PWNStatus adds per-flag progress to the combined PWN scope.
type PWNStatus struct {
	ChallengeStatus
	UserSolved bool `json:"userSolved"`
	RootSolved bool `json:"rootSolved"`
}

// Round2Status groups the round 2 scopes.
type Round2Status struct {
	Android ChallengeStatus `json:"android"`
	PWN     PWNStatus       `json:"pwn"`
}

// AttemptStatus is a team's progress across every scope.
type AttemptStatus struct {
	Round1 ChallengeStatus `json:"round1"`
	Round2 Round2Status    `json:"round2"`
}
