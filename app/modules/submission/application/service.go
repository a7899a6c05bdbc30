package submissionservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/telemetry"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

const defaultUnitTimeout = 5 * time.Second

// Rules holds the event configuration the workflow checks submissions against.
type Rules struct {
	Format  *submissiondomain.FlagFormat
	Secrets submissiondomain.FlagSecrets
	// RoundStarts is the configured event start per round, used when a team
	// has no recorded session.
	RoundStarts map[int]time.Time
	UnitTimeout time.Duration
}

// SubmissionService implements the Service interface.
type SubmissionService struct {
	repo      submissiondb.Repository
	sessions  RoundStartProvider
	hints     HintPenaltyProvider
	publisher EventPublisher
	rules     Rules
	clock     clock.Clock
	logger    *slog.Logger
	metrics   metrics.SubmissionMetrics
	tracer    trace.Tracer
}

// NewSubmissionService creates a new SubmissionService. publisher may be nil.
func NewSubmissionService(
	repo submissiondb.Repository,
	sessions RoundStartProvider,
	hints HintPenaltyProvider,
	publisher EventPublisher,
	rules Rules,
	clk clock.Clock,
	logger *slog.Logger,
	metrics metrics.SubmissionMetrics,
	tracer trace.Tracer,
) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if rules.UnitTimeout <= 0 {
		rules.UnitTimeout = defaultUnitTimeout
	}
	return &SubmissionService{
		repo:      repo,
		sessions:  sessions,
		hints:     hints,
		publisher: publisher,
		rules:     rules,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

var _ Service = (*SubmissionService)(nil)

func withTelemetry[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op telemetry.OperationFunc[S, F],
) (results.OperationResult[S, F], error) {
	return telemetry.Run(ctx, telemetry.Instrument{
		Service: "SubmissionService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}, operationName, identifier, op)
}

// runInScope runs fn as one ledger unit bounded by the unit timeout.
func runInScope[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	teamCode string,
	key submissiondomain.ChallengeKey,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	unitCtx, cancel := context.WithTimeout(ctx, s.rules.UnitTimeout)
	defer cancel()

	var result results.OperationResult[S, F]
	err := s.repo.RunInScope(unitCtx, teamCode, key, func(ctx context.Context, db bun.IDB) error {
		var unitErr error
		result, unitErr = fn(ctx, db)
		return unitErr
	})
	return result, err
}

// roundStart resolves the scoring reference instant for a team's round.
func (s *SubmissionService) roundStart(ctx context.Context, teamCode string, round int) (time.Time, error) {
	if s.sessions != nil {
		start, ok, err := s.sessions.GetStart(ctx, teamCode, round)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to resolve round start: %w", err)
		}
		if ok {
			return start, nil
		}
	}

	fallback, ok := s.rules.RoundStarts[round]
	if !ok || fallback.IsZero() {
		return time.Time{}, fmt.Errorf("no start time for team %s round %d", teamCode, round)
	}
	s.logger.WarnContext(ctx, "No recorded session, scoring from configured event start",
		attr.ExtractCorrelationID(ctx),
		attr.TeamCode(teamCode),
		attr.Round(round),
		attr.Time("event_start", fallback),
	)
	return fallback, nil
}

// evaluate compares the attempt's flag with its secret and scores it when correct.
// The attempt is updated in place.
func (s *SubmissionService) evaluate(ctx context.Context, a *submissiondb.SubmissionAttempt, key submissiondomain.ChallengeKey) (*submissiondomain.Breakdown, error) {
	secret, ok := s.rules.Secrets.Secret(a.ChallengeType)
	if !ok {
		return nil, fmt.Errorf("no secret configured for %s", a.ChallengeType.Label())
	}

	// resolved before the comparison so a missing start fails every flag alike
	start, err := s.roundStart(ctx, a.TeamCode, a.Round)
	if err != nil {
		return nil, err
	}

	schedule := key.PenaltySchedule()
	a.IsCorrect = submissiondomain.CompareFlag(a.FlagText, secret)
	a.PointDeduction = schedule.Fraction(a.AttemptNumber)

	if !a.IsCorrect {
		a.ClearScore()
		return nil, nil
	}

	var hintPenalty float64
	if s.hints != nil {
		hintPenalty, err = s.hints.SumPenalty(ctx, a.TeamCode, a.Round, key.HintBucket(), a.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to sum hint penalty: %w", err)
		}
	}

	breakdown := submissiondomain.Score(submissiondomain.ScoreInput{
		RoundStart:    start,
		SubmittedAt:   a.SubmittedAt,
		AttemptNumber: a.AttemptNumber,
		BasePoints:    submissiondomain.BasePoints(a.ChallengeType),
		HintPenalty:   hintPenalty,
		Schedule:      &schedule,
	})
	a.ApplyBreakdown(breakdown)
	return &breakdown, nil
}

func (s *SubmissionService) publish(ctx context.Context, a *submissiondb.SubmissionAttempt) {
	if s.publisher == nil {
		return
	}
	payload := submissiondomain.SubmissionRecordedPayloadV1{
		AttemptID:     a.ID.String(),
		TeamCode:      a.TeamCode,
		Round:         a.Round,
		ChallengeType: a.ChallengeType,
		Correct:       a.IsCorrect,
		AttemptNumber: a.AttemptNumber,
		Points:        a.Points,
		SubmittedAt:   a.SubmittedAt,
	}
	if err := s.publisher.PublishSubmissionRecorded(ctx, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish submission event",
			attr.ExtractCorrelationID(ctx),
			attr.String("attempt_id", payload.AttemptID),
			attr.Error(err),
		)
	}
}
