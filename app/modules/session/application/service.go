package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	sessiondomain "github.com/medusa-ctf/medusa-backend/app/modules/session/domain"
	sessiondb "github.com/medusa-ctf/medusa-backend/app/modules/session/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/telemetry"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"go.opentelemetry.io/otel/trace"
)

// SessionService implements the Service interface.
type SessionService struct {
	repo    sessiondb.Repository
	parser  *sessiondomain.TimeParser
	clock   clock.Clock
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer

	mu        sync.RWMutex
	scheduler RecalculationScheduler
}

// NewSessionService creates a new SessionService. The scheduler is attached
// later with SetScheduler because it is owned by the submission module.
func NewSessionService(
	repo sessiondb.Repository,
	clk clock.Clock,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
	tracer trace.Tracer,
) *SessionService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &SessionService{
		repo:    repo,
		parser:  sessiondomain.NewTimeParser(),
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

var _ Service = (*SessionService)(nil)

// SetScheduler attaches the rescoring scheduler used after overrides.
func (s *SessionService) SetScheduler(scheduler RecalculationScheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = scheduler
}

func (s *SessionService) currentScheduler() RecalculationScheduler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheduler
}

func withTelemetry[S any, F any](
	s *SessionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op telemetry.OperationFunc[S, F],
) (results.OperationResult[S, F], error) {
	return telemetry.Run(ctx, telemetry.Instrument{
		Service: "SessionService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}, operationName, identifier, op)
}

func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}

func checkRound(claimRound, round int) error {
	if err := sessiondomain.ValidateRound(round); err != nil {
		return err
	}
	if claimRound != round {
		return fmt.Errorf("%w: token is for round %d", sessiondomain.ErrRoundMismatch, claimRound)
	}
	return nil
}

func (s *SessionService) view(session *sessiondb.RoundSession) *SessionView {
	return &SessionView{
		TeamCode:       session.TeamCode,
		Round:          session.Round,
		StartedAt:      session.StartedAt.UTC(),
		ElapsedSeconds: sessiondomain.ElapsedSeconds(session.StartedAt, s.clock.Now()),
		OverriddenAt:   session.OverriddenAt,
	}
}

// StartRound is idempotent: later calls return the first recorded start.
func (s *SessionService) StartRound(ctx context.Context, teamCode string, claimRound, round int) (*SessionView, error) {
	result, err := withTelemetry(s, ctx, "StartRound", teamCode, func(ctx context.Context) (results.OperationResult[*SessionView, error], error) {
		if err := checkRound(claimRound, round); err != nil {
			return results.FailureResult[*SessionView, error](err), nil
		}

		stored, created, err := s.repo.StartIfAbsent(ctx, nil, &sessiondb.RoundSession{
			TeamCode:  teamCode,
			Round:     round,
			StartedAt: s.clock.Now(),
		})
		if err != nil {
			return results.OperationResult[*SessionView, error]{}, fmt.Errorf("failed to start round: %w", err)
		}
		if created {
			s.logger.InfoContext(ctx, "Round started",
				attr.ExtractCorrelationID(ctx),
				attr.TeamCode(teamCode),
				attr.Round(round),
				attr.Time("started_at", stored.StartedAt),
			)
		}
		return results.SuccessResult[*SessionView, error](s.view(stored)), nil
	})
	return unwrap(result, err)
}

// GetSession returns the session of the caller's round.
func (s *SessionService) GetSession(ctx context.Context, teamCode string, claimRound, round int) (*SessionView, error) {
	result, err := withTelemetry(s, ctx, "GetSession", teamCode, func(ctx context.Context) (results.OperationResult[*SessionView, error], error) {
		if err := checkRound(claimRound, round); err != nil {
			return results.FailureResult[*SessionView, error](err), nil
		}

		stored, err := s.repo.Get(ctx, nil, teamCode, round)
		if err != nil {
			if errors.Is(err, sessiondb.ErrNotFound) {
				return results.FailureResult[*SessionView, error](fmt.Errorf("%w: round %d", sessiondomain.ErrNotStarted, round)), nil
			}
			return results.OperationResult[*SessionView, error]{}, fmt.Errorf("failed to load session: %w", err)
		}
		return results.SuccessResult[*SessionView, error](s.view(stored)), nil
	})
	return unwrap(result, err)
}

// GetStart serves the submission workflow, which falls back to the event
// start when found is false.
func (s *SessionService) GetStart(ctx context.Context, teamCode string, round int) (time.Time, bool, error) {
	stored, err := s.repo.Get(ctx, nil, teamCode, round)
	if err != nil {
		if errors.Is(err, sessiondb.ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	return stored.StartedAt, true, nil
}

// OverrideStart replaces the recorded start and asks for the team's round
// to be rescored. A scheduling failure is logged; the override stands.
func (s *SessionService) OverrideStart(ctx context.Context, req OverrideRequest) (*SessionView, error) {
	teamCode := strings.ToUpper(strings.TrimSpace(req.TeamCode))
	result, err := withTelemetry(s, ctx, "OverrideStart", teamCode, func(ctx context.Context) (results.OperationResult[*SessionView, error], error) {
		if err := sessiondomain.ValidateRound(req.Round); err != nil {
			return results.FailureResult[*SessionView, error](err), nil
		}
		if teamCode == "" {
			return results.FailureResult[*SessionView, error](sessiondomain.ErrMissingTeam), nil
		}

		now := s.clock.Now()
		loc, err := s.parser.Location(req.Timezone)
		if err != nil {
			return results.FailureResult[*SessionView, error](fmt.Errorf("%w: %v", sessiondomain.ErrUnparsableTime, err)), nil
		}
		startedAt, err := s.parser.Parse(req.StartedAt, loc, now)
		if err != nil {
			return results.FailureResult[*SessionView, error](err), nil
		}

		session := &sessiondb.RoundSession{
			TeamCode:     teamCode,
			Round:        req.Round,
			StartedAt:    startedAt,
			OverriddenAt: &now,
		}
		if err := s.repo.Override(ctx, nil, session); err != nil {
			return results.OperationResult[*SessionView, error]{}, fmt.Errorf("failed to override start: %w", err)
		}

		s.logger.InfoContext(ctx, "Round start overridden",
			attr.ExtractCorrelationID(ctx),
			attr.TeamCode(teamCode),
			attr.Round(req.Round),
			attr.Time("started_at", startedAt),
		)

		v := s.view(session)
		if scheduler := s.currentScheduler(); scheduler != nil {
			if err := scheduler.ScheduleRecalculation(ctx, teamCode, req.Round); err != nil {
				s.logger.ErrorContext(ctx, "Failed to schedule recalculation",
					attr.ExtractCorrelationID(ctx),
					attr.TeamCode(teamCode),
					attr.Round(req.Round),
					attr.Error(err),
				)
			} else {
				v.Rescheduled = true
			}
		}
		return results.SuccessResult[*SessionView, error](v), nil
	})
	return unwrap(result, err)
}
