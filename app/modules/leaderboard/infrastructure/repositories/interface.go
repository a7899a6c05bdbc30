package leaderboarddb

import (
	"context"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
)

// Repository aggregates the attempt ledger into per-team standings.
type Repository interface {
	Standings(ctx context.Context) ([]leaderboarddomain.Standing, error)
}
