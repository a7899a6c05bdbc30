package leaderboarddb

import (
	"context"
	"fmt"
	"time"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db *bun.DB
}

// NewRepository creates a new Postgres-backed standings reader.
func NewRepository(db *bun.DB) Repository {
	return &Impl{db: db}
}

type standingRow struct {
	TeamCode    string     `bun:"team_code"`
	TeamName    string     `bun:"team_name"`
	Points      float64    `bun:"points"`
	Solves      int        `bun:"solves"`
	LastSolveAt *time.Time `bun:"last_solve_at"`
}

// Standings covers every active team, including those without a solve.
func (r *Impl) Standings(ctx context.Context) ([]leaderboarddomain.Standing, error) {
	var rows []standingRow
	err := r.db.NewRaw(`
		SELECT
			t.code AS team_code,
			t.name AS team_name,
			COALESCE(SUM(sa.points) FILTER (WHERE sa.is_correct), 0) AS points,
			COUNT(sa.id) FILTER (WHERE sa.is_correct) AS solves,
			MAX(sa.submitted_at) FILTER (WHERE sa.is_correct) AS last_solve_at
		FROM teams AS t
		LEFT JOIN submission_attempts AS sa ON sa.team_code = t.code
		WHERE t.active
		GROUP BY t.code, t.name
	`).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("leaderboarddb.Standings: %w", err)
	}

	out := make([]leaderboarddomain.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaderboarddomain.Standing{
			TeamCode:    row.TeamCode,
			TeamName:    row.TeamName,
			Points:      row.Points,
			Solves:      row.Solves,
			LastSolveAt: row.LastSolveAt,
		})
	}
	return out, nil
}
