package submissionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"
)

// QueueName is the dedicated River queue for submission jobs.
const QueueName = "submission"

// QueueService schedules background rescoring.
type QueueService interface {
	// ScheduleRecalculation enqueues a rescoring of the team's round.
	ScheduleRecalculation(ctx context.Context, teamCode string, round int) error
	// GetJobs returns the recalculation jobs recorded for a team (for debugging)
	GetJobs(ctx context.Context, teamCode string) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service handles submission jobs using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	db      *bun.DB
	logger  *slog.Logger
	metrics metrics.OperationMetrics
}

// NewService creates a River-backed queue service. db is used for job
// inspection queries only.
func NewService(
	ctx context.Context,
	bunDB *bun.DB,
	dsn string,
	recalculator Recalculator,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_submission_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		ctxLogger.Error("Failed to create pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewRecalculateWorker(recalculator, ctxLogger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: 10},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Submission queue service initialized")
	return &Service{
		client:  riverClient,
		pool:    pool,
		db:      bunDB,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting submission queue service")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

// Stop waits for running jobs, then releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping submission queue service")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	return nil
}

// ScheduleRecalculation enqueues a RecalculateJob. Jobs are not deduplicated:
// an override arriving while an earlier job runs must still be applied, and
// rescoring is idempotent.
func (s *Service) ScheduleRecalculation(ctx context.Context, teamCode string, round int) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_recalculation", "river")

	ctxLogger := s.logger.With(
		attr.ExtractCorrelationID(ctx),
		attr.TeamCode(teamCode),
		attr.Round(round),
	)

	res, err := s.client.Insert(ctx, RecalculateJob{
		TeamCode:      teamCode,
		Round:         round,
		CorrelationID: attr.CorrelationIDFromContext(ctx),
	}, &river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 5,
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule recalculation job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_recalculation", "river")
		return fmt.Errorf("failed to schedule recalculation job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_recalculation", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_recalculation", "river", time.Since(start))

	ctxLogger.Info("Recalculation job scheduled", attr.Int64("job_id", res.Job.ID))
	return nil
}

// GetJobs returns the recalculation jobs recorded for a team, newest first.
func (s *Service) GetJobs(ctx context.Context, teamCode string) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64          `bun:"id"`
		Kind        string         `bun:"kind"`
		State       string         `bun:"state"`
		Args        map[string]any `bun:"args"`
		CreatedAt   time.Time      `bun:"created_at"`
		Attempt     int16          `bun:"attempt"`
		MaxAttempts int16          `bun:"max_attempts"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "created_at", "attempt", "max_attempts").
		Where("kind = ?", RecalculateJob{}.Kind()).
		Where("args->>'team_code' = ?", teamCode).
		Order("created_at DESC").
		Limit(50).
		Scan(ctx, &jobs)
	if err != nil {
		s.logger.Error("Failed to query recalculation jobs", attr.TeamCode(teamCode), attr.Error(err))
		return nil, fmt.Errorf("failed to query recalculation jobs: %w", err)
	}

	out := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		round, _ := job.Args["round"].(float64)
		out[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			TeamCode:    teamCode,
			Round:       int(round),
			State:       job.State,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}
	return out, nil
}

// HealthCheck verifies the River pool can reach the database.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("river pool unhealthy: %w", err)
	}
	return nil
}
