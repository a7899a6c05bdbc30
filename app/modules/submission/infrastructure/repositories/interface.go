package submissiondb

import (
	"context"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/uptrace/bun"
)

// ScopeFunc runs inside an atomic unit. db is the unit's handle and may be
// nil for implementations without a database.
type ScopeFunc func(ctx context.Context, db bun.IDB) error

// Repository defines the contract for attempt ledger persistence.
type Repository interface {
	// RunInScope runs fn as one atomic unit, serialized against every other
	// unit for the same team and challenge scope. Any error rolls back all
	// writes made by fn.
	RunInScope(ctx context.Context, teamCode string, key submissiondomain.ChallengeKey, fn ScopeFunc) error

	// CountAttempts counts a team's attempts in a round across the given challenge types.
	CountAttempts(ctx context.Context, db bun.IDB, teamCode string, round int, types []submissiondomain.ChallengeType) (int, error)

	// FindDuplicate returns a prior attempt with identical flag text, or nil.
	FindDuplicate(ctx context.Context, db bun.IDB, teamCode, flag string, round int, types []submissiondomain.ChallengeType) (*SubmissionAttempt, error)

	// InsertAttempt stores a new attempt. Returns ErrDuplicateKey on a unique violation.
	InsertAttempt(ctx context.Context, db bun.IDB, attempt *SubmissionAttempt) error

	// UpdateScore rewrites the timing, correctness and score columns of an attempt.
	UpdateScore(ctx context.Context, db bun.IDB, attempt *SubmissionAttempt) error

	// GetByID retrieves one attempt.
	GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*SubmissionAttempt, error)

	// ListByTeam returns a team's attempts ordered by round, type and ordinal.
	ListByTeam(ctx context.Context, db bun.IDB, teamCode string) ([]SubmissionAttempt, error)

	// ListAll returns every attempt ordered by submission time.
	ListAll(ctx context.Context, db bun.IDB) ([]SubmissionAttempt, error)
}
