package submissionqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
)

// InlineScheduler rescores synchronously. Used when the job queue is disabled.
type InlineScheduler struct {
	recalculator Recalculator
	logger       *slog.Logger
}

// NewInlineScheduler creates a new InlineScheduler.
func NewInlineScheduler(recalculator Recalculator, logger *slog.Logger) *InlineScheduler {
	return &InlineScheduler{recalculator: recalculator, logger: logger}
}

// ScheduleRecalculation rescores the team's round before returning.
func (s *InlineScheduler) ScheduleRecalculation(ctx context.Context, teamCode string, round int) error {
	n, err := s.recalculator.RecalculateTeamRound(ctx, teamCode, round)
	if err != nil {
		return fmt.Errorf("inline recalculation: %w", err)
	}
	s.logger.InfoContext(ctx, "Recalculated team round inline",
		attr.ExtractCorrelationID(ctx),
		attr.TeamCode(teamCode),
		attr.Round(round),
		attr.Int("attempts_rescored", n),
	)
	return nil
}
