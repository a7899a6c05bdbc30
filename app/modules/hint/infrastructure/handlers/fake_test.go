package hinthandlers

import (
	"context"
	"time"

	hintservice "github.com/medusa-ctf/medusa-backend/app/modules/hint/application"
)

type FakeService struct {
	UnlockFunc     func(ctx context.Context, teamCode string, claimRound int, bucket string, number int) (*hintservice.UnlockResult, error)
	ListFunc       func(ctx context.Context, teamCode string, claimRound int) ([]hintservice.BucketView, error)
	SumPenaltyFunc func(ctx context.Context, teamCode string, round int, bucket string, asOf time.Time) (float64, error)
}

func (f *FakeService) Unlock(ctx context.Context, teamCode string, claimRound int, bucket string, number int) (*hintservice.UnlockResult, error) {
	if f.UnlockFunc != nil {
		return f.UnlockFunc(ctx, teamCode, claimRound, bucket, number)
	}
	return &hintservice.UnlockResult{}, nil
}

func (f *FakeService) List(ctx context.Context, teamCode string, claimRound int) ([]hintservice.BucketView, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, teamCode, claimRound)
	}
	return []hintservice.BucketView{}, nil
}

func (f *FakeService) SumPenalty(ctx context.Context, teamCode string, round int, bucket string, asOf time.Time) (float64, error) {
	if f.SumPenaltyFunc != nil {
		return f.SumPenaltyFunc(ctx, teamCode, round, bucket, asOf)
	}
	return 0, nil
}

var _ hintservice.Service = (*FakeService)(nil)
