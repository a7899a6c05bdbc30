package sessiondb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository persists round sessions. A nil db uses the repository's own connection.
type Repository interface {
	// StartIfAbsent stores session unless one exists for (team, round) and
	// returns the stored row. created reports whether this call inserted it.
	StartIfAbsent(ctx context.Context, db bun.IDB, session *RoundSession) (stored *RoundSession, created bool, err error)
	Get(ctx context.Context, db bun.IDB, teamCode string, round int) (*RoundSession, error)
	// Override inserts or replaces the start time of (team, round).
	Override(ctx context.Context, db bun.IDB, session *RoundSession) error
}
