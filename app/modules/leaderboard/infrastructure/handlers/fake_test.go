package leaderboardhandlers

import (
	"context"

	leaderboardservice "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/application"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	GetLeaderboardFunc func(ctx context.Context) (*leaderboardservice.Leaderboard, error)
	RenderChartFunc    func(ctx context.Context, top int) ([]byte, error)
}

func (f *FakeService) GetLeaderboard(ctx context.Context) (*leaderboardservice.Leaderboard, error) {
	if f.GetLeaderboardFunc != nil {
		return f.GetLeaderboardFunc(ctx)
	}
	return &leaderboardservice.Leaderboard{}, nil
}

func (f *FakeService) RenderChart(ctx context.Context, top int) ([]byte, error) {
	if f.RenderChartFunc != nil {
		return f.RenderChartFunc(ctx, top)
	}
	return []byte("\x89PNG"), nil
}

func (f *FakeService) HandleSubmissionRecorded(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
	return nil
}

var _ leaderboardservice.Service = (*FakeService)(nil)
