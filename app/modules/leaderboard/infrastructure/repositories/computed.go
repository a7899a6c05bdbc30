package leaderboarddb

import (
	"context"
	"fmt"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
)

// ComputedRepository aggregates in process from the team and attempt
// repositories. It backs the memory storage driver.
type ComputedRepository struct {
	teams    teamdb.Repository
	attempts submissiondb.Repository
}

// NewComputedRepository creates a ComputedRepository.
func NewComputedRepository(teams teamdb.Repository, attempts submissiondb.Repository) *ComputedRepository {
	return &ComputedRepository{teams: teams, attempts: attempts}
}

var _ Repository = (*ComputedRepository)(nil)

func (r *ComputedRepository) Standings(ctx context.Context) ([]leaderboarddomain.Standing, error) {
	teams, err := r.teams.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("leaderboarddb.Standings: %w", err)
	}
	attempts, err := r.attempts.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("leaderboarddb.Standings: %w", err)
	}

	byTeam := make(map[string]*leaderboarddomain.Standing, len(teams))
	out := make([]leaderboarddomain.Standing, 0, len(teams))
	for _, t := range teams {
		if !t.Active {
			continue
		}
		out = append(out, leaderboarddomain.Standing{TeamCode: t.Code, TeamName: t.Name})
	}
	for i := range out {
		byTeam[out[i].TeamCode] = &out[i]
	}

	for _, a := range attempts {
		s, ok := byTeam[a.TeamCode]
		if !ok || !a.IsCorrect {
			continue
		}
		s.Points += a.Points
		s.Solves++
		if s.LastSolveAt == nil || a.SubmittedAt.After(*s.LastSolveAt) {
			at := a.SubmittedAt
			s.LastSolveAt = &at
		}
	}
	return out, nil
}
