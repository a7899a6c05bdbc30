package teamservice

import (
	"context"

	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Team Repo
// ------------------------

type FakeTeamRepo struct {
	CreateFunc    func(ctx context.Context, db bun.IDB, team *teamdb.Team) error
	GetByCodeFunc func(ctx context.Context, db bun.IDB, code string) (*teamdb.Team, error)
	ListFunc      func(ctx context.Context, db bun.IDB) ([]teamdb.Team, error)
	UpdateFunc    func(ctx context.Context, db bun.IDB, team *teamdb.Team) error
}

func (f *FakeTeamRepo) Create(ctx context.Context, db bun.IDB, team *teamdb.Team) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, team)
	}
	return nil
}

func (f *FakeTeamRepo) GetByCode(ctx context.Context, db bun.IDB, code string) (*teamdb.Team, error) {
	if f.GetByCodeFunc != nil {
		return f.GetByCodeFunc(ctx, db, code)
	}
	return nil, teamdb.ErrNotFound
}

func (f *FakeTeamRepo) List(ctx context.Context, db bun.IDB) ([]teamdb.Team, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeTeamRepo) Update(ctx context.Context, db bun.IDB, team *teamdb.Team) error {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, db, team)
	}
	return nil
}

var _ teamdb.Repository = (*FakeTeamRepo)(nil)
