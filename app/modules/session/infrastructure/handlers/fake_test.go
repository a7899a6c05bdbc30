package sessionhandlers

import (
	"context"
	"time"

	sessionservice "github.com/medusa-ctf/medusa-backend/app/modules/session/application"
)

type FakeService struct {
	StartRoundFunc    func(ctx context.Context, teamCode string, claimRound, round int) (*sessionservice.SessionView, error)
	GetSessionFunc    func(ctx context.Context, teamCode string, claimRound, round int) (*sessionservice.SessionView, error)
	GetStartFunc      func(ctx context.Context, teamCode string, round int) (time.Time, bool, error)
	OverrideStartFunc func(ctx context.Context, req sessionservice.OverrideRequest) (*sessionservice.SessionView, error)
}

func (f *FakeService) StartRound(ctx context.Context, teamCode string, claimRound, round int) (*sessionservice.SessionView, error) {
	if f.StartRoundFunc != nil {
		return f.StartRoundFunc(ctx, teamCode, claimRound, round)
	}
	return &sessionservice.SessionView{TeamCode: teamCode, Round: round}, nil
}

func (f *FakeService) GetSession(ctx context.Context, teamCode string, claimRound, round int) (*sessionservice.SessionView, error) {
	if f.GetSessionFunc != nil {
		return f.GetSessionFunc(ctx, teamCode, claimRound, round)
	}
	return &sessionservice.SessionView{TeamCode: teamCode, Round: round}, nil
}

func (f *FakeService) GetStart(ctx context.Context, teamCode string, round int) (time.Time, bool, error) {
	if f.GetStartFunc != nil {
		return f.GetStartFunc(ctx, teamCode, round)
	}
	return time.Time{}, false, nil
}

func (f *FakeService) OverrideStart(ctx context.Context, req sessionservice.OverrideRequest) (*sessionservice.SessionView, error) {
	if f.OverrideStartFunc != nil {
		return f.OverrideStartFunc(ctx, req)
	}
	return &sessionservice.SessionView{TeamCode: req.TeamCode, Round: req.Round}, nil
}

var _ sessionservice.Service = (*FakeService)(nil)
