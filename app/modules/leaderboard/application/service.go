package leaderboardservice

import (
	"context"
	"fmt"
	"log/slog"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	leaderboardcache "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/cache"
	leaderboarddb "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/repositories"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/telemetry"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"go.opentelemetry.io/otel/trace"
)

// MaxChartTeams bounds the bars of the standings chart.
const MaxChartTeams = 25

// LeaderboardService implements the Service interface.
type LeaderboardService struct {
	repo    leaderboarddb.Repository
	cache   leaderboardcache.Cache
	palette ChartPalette
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
}

// NewLeaderboardService creates a new LeaderboardService. A nil cache disables caching.
func NewLeaderboardService(
	repo leaderboarddb.Repository,
	cache leaderboardcache.Cache,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
	tracer trace.Tracer,
) *LeaderboardService {
	if cache == nil {
		cache = leaderboardcache.NoopCache{}
	}
	return &LeaderboardService{
		repo:    repo,
		cache:   cache,
		palette: DefaultPalette,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

var _ Service = (*LeaderboardService)(nil)

func withTelemetry[S any, F any](
	s *LeaderboardService,
	ctx context.Context,
	operationName string,
	identifier string,
	op telemetry.OperationFunc[S, F],
) (results.OperationResult[S, F], error) {
	return telemetry.Run(ctx, telemetry.Instrument{
		Service: "LeaderboardService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}, operationName, identifier, op)
}

// GetLeaderboard serves from the cache when possible. Cache errors degrade
// to a direct read.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) (*Leaderboard, error) {
	result, err := withTelemetry(s, ctx, "GetLeaderboard", "", func(ctx context.Context) (results.OperationResult[*Leaderboard, error], error) {
		entries, hit, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Leaderboard cache read failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		}
		if hit {
			return results.SuccessResult[*Leaderboard, error](&Leaderboard{Entries: entries}), nil
		}

		standings, err := s.repo.Standings(ctx)
		if err != nil {
			return results.OperationResult[*Leaderboard, error]{}, fmt.Errorf("failed to load standings: %w", err)
		}
		entries = leaderboarddomain.Rank(standings)

		if err := s.cache.Set(ctx, entries); err != nil {
			s.logger.WarnContext(ctx, "Leaderboard cache write failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		}
		return results.SuccessResult[*Leaderboard, error](&Leaderboard{Entries: entries}), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

// RenderChart draws at most top teams; top below 1 means ten and the chart
// never holds more than MaxChartTeams bars.
func (s *LeaderboardService) RenderChart(ctx context.Context, top int) ([]byte, error) {
	if top < 1 {
		top = 10
	}
	if top > MaxChartTeams {
		top = MaxChartTeams
	}
	board, err := s.GetLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	entries := board.Entries
	if len(entries) > top {
		entries = entries[:top]
	}
	png, err := GenerateStandingsChart(entries, s.palette)
	if err != nil {
		return nil, fmt.Errorf("failed to render leaderboard chart: %w", err)
	}
	return png, nil
}

func (s *LeaderboardService) HandleSubmissionRecorded(ctx context.Context, payload submissiondomain.SubmissionRecordedPayloadV1) error {
	if !payload.Correct {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	s.logger.DebugContext(ctx, "Leaderboard cache invalidated",
		attr.ExtractCorrelationID(ctx),
		attr.TeamCode(payload.TeamCode),
		attr.String("attempt_id", payload.AttemptID),
	)
	return nil
}
