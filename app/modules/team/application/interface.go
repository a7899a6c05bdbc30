package teamservice

import (
	"context"

	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
)

// Service manages the team registry.
type Service interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*teamdb.Team, error)
	ListTeams(ctx context.Context) ([]teamdb.Team, error)
	UpdateTeam(ctx context.Context, code string, req UpdateTeamRequest) (*teamdb.Team, error)
	// GetTeam returns the stored team including its access hash.
	GetTeam(ctx context.Context, code string) (*teamdb.Team, error)
}

// CreateTeamRequest registers a team. AccessCode is stored as a bcrypt hash.
type CreateTeamRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Institution string `json:"institution"`
	AccessCode  string `json:"accessCode"`
}

// UpdateTeamRequest patches a team; nil fields are left unchanged.
type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"`
	Institution *string `json:"institution,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}
