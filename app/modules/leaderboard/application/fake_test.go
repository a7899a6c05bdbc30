package leaderboardservice

import (
	"context"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	leaderboardcache "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/cache"
	leaderboarddb "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/repositories"
)

// ------------------------
// Fake Standings Repo
// ------------------------

type FakeRepo struct {
	calls         int
	StandingsFunc func(ctx context.Context) ([]leaderboarddomain.Standing, error)
}

func (f *FakeRepo) Standings(ctx context.Context) ([]leaderboarddomain.Standing, error) {
	f.calls++
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx)
	}
	return nil, nil
}

var _ leaderboarddb.Repository = (*FakeRepo)(nil)

// ------------------------
// Fake Cache
// ------------------------

type FakeCache struct {
	entries     []leaderboarddomain.Entry
	stored      bool
	invalidated int

	GetFunc        func(ctx context.Context) ([]leaderboarddomain.Entry, bool, error)
	SetFunc        func(ctx context.Context, entries []leaderboarddomain.Entry) error
	InvalidateFunc func(ctx context.Context) error
}

func (f *FakeCache) Get(ctx context.Context) ([]leaderboarddomain.Entry, bool, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx)
	}
	return f.entries, f.stored, nil
}

func (f *FakeCache) Set(ctx context.Context, entries []leaderboarddomain.Entry) error {
	if f.SetFunc != nil {
		return f.SetFunc(ctx, entries)
	}
	f.entries, f.stored = entries, true
	return nil
}

func (f *FakeCache) Invalidate(ctx context.Context) error {
	f.invalidated++
	if f.InvalidateFunc != nil {
		return f.InvalidateFunc(ctx)
	}
	f.entries, f.stored = nil, false
	return nil
}

var _ leaderboardcache.Cache = (*FakeCache)(nil)
