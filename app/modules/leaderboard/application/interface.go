package leaderboardservice

import (
	"context"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
)

// Service serves the public scoreboard.
type Service interface {
	GetLeaderboard(ctx context.Context) (*Leaderboard, error)
	// RenderChart draws the top teams as a PNG bar chart.
	RenderChart(ctx context.Context, top int) ([]byte, error)
	// HandleSubmissionRecorded drops the cached board after a correct solve.
	HandleSubmissionRecorded(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error
}

// Leaderboard is the ranked scoreboard.
type Leaderboard struct {
	Entries []leaderboarddomain.Entry `json:"entries"`
}
