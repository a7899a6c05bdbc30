package teamhandlers

import (
	"context"

	teamservice "github.com/medusa-ctf/medusa-backend/app/modules/team/application"
	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
)

type FakeService struct {
	CreateTeamFunc func(ctx context.Context, req teamservice.CreateTeamRequest) (*teamdb.Team, error)
	ListTeamsFunc  func(ctx context.Context) ([]teamdb.Team, error)
	UpdateTeamFunc func(ctx context.Context, code string, req teamservice.UpdateTeamRequest) (*teamdb.Team, error)
	GetTeamFunc    func(ctx context.Context, code string) (*teamdb.Team, error)
}

func (f *FakeService) CreateTeam(ctx context.Context, req teamservice.CreateTeamRequest) (*teamdb.Team, error) {
	if f.CreateTeamFunc != nil {
		return f.CreateTeamFunc(ctx, req)
	}
	return &teamdb.Team{Code: req.Code, Name: req.Name}, nil
}

func (f *FakeService) ListTeams(ctx context.Context) ([]teamdb.Team, error) {
	if f.ListTeamsFunc != nil {
		return f.ListTeamsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) UpdateTeam(ctx context.Context, code string, req teamservice.UpdateTeamRequest) (*teamdb.Team, error) {
	if f.UpdateTeamFunc != nil {
		return f.UpdateTeamFunc(ctx, code, req)
	}
	return &teamdb.Team{Code: code}, nil
}

func (f *FakeService) GetTeam(ctx context.Context, code string) (*teamdb.Team, error) {
	if f.GetTeamFunc != nil {
		return f.GetTeamFunc(ctx, code)
	}
	return nil, teamservice.ErrTeamNotFound
}

var _ teamservice.Service = (*FakeService)(nil)
