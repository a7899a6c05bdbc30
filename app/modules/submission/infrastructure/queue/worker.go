package submissionqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/riverqueue/river"
)

// Recalculator rescores a team's round. Implemented by the submission service.
type Recalculator interface {
	RecalculateTeamRound(ctx context.Context, teamCode string, round int) (int, error)
}

// RecalculateWorker runs RecalculateJob.
type RecalculateWorker struct {
	river.WorkerDefaults[RecalculateJob]
	recalculator Recalculator
	logger       *slog.Logger
}

// NewRecalculateWorker creates a new RecalculateWorker.
func NewRecalculateWorker(recalculator Recalculator, logger *slog.Logger) *RecalculateWorker {
	return &RecalculateWorker{recalculator: recalculator, logger: logger}
}

// Timeout bounds a single run; the rescoring itself holds one scope at a time.
func (w *RecalculateWorker) Timeout(*river.Job[RecalculateJob]) time.Duration {
	return time.Minute
}

// Work rescores the team's round. Errors are retried by River; invalid
// arguments cancel the job.
func (w *RecalculateWorker) Work(ctx context.Context, job *river.Job[RecalculateJob]) error {
	if job.Args.CorrelationID != "" {
		ctx = attr.WithCorrelationID(ctx, job.Args.CorrelationID)
	}

	logger := w.logger.With(
		attr.ExtractCorrelationID(ctx),
		attr.TeamCode(job.Args.TeamCode),
		attr.Round(job.Args.Round),
		attr.Int64("job_id", job.ID),
		attr.Int("attempt", job.Attempt),
	)

	logger.InfoContext(ctx, "Recalculating team round")

	n, err := w.recalculator.RecalculateTeamRound(ctx, job.Args.TeamCode, job.Args.Round)
	if err != nil {
		logger.ErrorContext(ctx, "Recalculation failed", attr.Error(err))
		if errors.Is(err, submissiondomain.ErrValidation) {
			return river.JobCancel(err)
		}
		return fmt.Errorf("recalculate %s round %d: %w", job.Args.TeamCode, job.Args.Round, err)
	}

	logger.InfoContext(ctx, "Recalculation complete", attr.Int("attempts_rescored", n))
	return nil
}
