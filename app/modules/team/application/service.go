package teamservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/telemetry"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const minAccessCodeLength = 8

var teamCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,64}$`)

// TeamService implements the Service interface.
type TeamService struct {
	repo       teamdb.Repository
	clock      clock.Clock
	bcryptCost int
	logger     *slog.Logger
	metrics    metrics.OperationMetrics
	tracer     trace.Tracer
}

// NewTeamService creates a new TeamService.
func NewTeamService(
	repo teamdb.Repository,
	clk clock.Clock,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
	tracer trace.Tracer,
) *TeamService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TeamService{
		repo:       repo,
		clock:      clk,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
	}
}

var _ Service = (*TeamService)(nil)

func withTelemetry[S any, F any](
	s *TeamService,
	ctx context.Context,
	operationName string,
	identifier string,
	op telemetry.OperationFunc[S, F],
) (results.OperationResult[S, F], error) {
	return telemetry.Run(ctx, telemetry.Instrument{
		Service: "TeamService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}, operationName, identifier, op)
}

// NormalizeCode upper-cases and trims a team code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
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

// CreateTeam registers a new team.
func (s *TeamService) CreateTeam(ctx context.Context, req CreateTeamRequest) (*teamdb.Team, error) {
	code := NormalizeCode(req.Code)
	result, err := withTelemetry(s, ctx, "CreateTeam", code, func(ctx context.Context) (results.OperationResult[*teamdb.Team, error], error) {
		name := strings.TrimSpace(req.Name)
		switch {
		case !teamCodePattern.MatchString(code):
			return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: code must be 3-64 characters of A-Z, 0-9, _ or -", ErrInvalidTeam)), nil
		case name == "":
			return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: name is required", ErrInvalidTeam)), nil
		case len(req.AccessCode) < minAccessCodeLength:
			return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: access code must be at least %d characters", ErrInvalidTeam, minAccessCodeLength)), nil
		case len(req.AccessCode) > 72:
			// bcrypt ignores bytes past 72
			return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: access code must be at most 72 bytes", ErrInvalidTeam)), nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.AccessCode), s.bcryptCost)
		if err != nil {
			return results.OperationResult[*teamdb.Team, error]{}, fmt.Errorf("failed to hash access code: %w", err)
		}

		now := s.clock.Now()
		team := &teamdb.Team{
			Code:        code,
			Name:        name,
			Institution: strings.TrimSpace(req.Institution),
			AccessHash:  string(hash),
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, nil, team); err != nil {
			if errors.Is(err, teamdb.ErrDuplicateKey) {
				return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: %s", ErrTeamExists, code)), nil
			}
			return results.OperationResult[*teamdb.Team, error]{}, fmt.Errorf("failed to create team: %w", err)
		}
		return results.SuccessResult[*teamdb.Team, error](team), nil
	})
	return unwrap(result, err)
}

// ListTeams returns every team ordered by code.
func (s *TeamService) ListTeams(ctx context.Context) ([]teamdb.Team, error) {
	result, err := withTelemetry(s, ctx, "ListTeams", "", func(ctx context.Context) (results.OperationResult[[]teamdb.Team, error], error) {
		teams, err := s.repo.List(ctx, nil)
		if err != nil {
			return results.OperationResult[[]teamdb.Team, error]{}, fmt.Errorf("failed to list teams: %w", err)
		}
		return results.SuccessResult[[]teamdb.Team, error](teams), nil
	})
	return unwrap(result, err)
}

// UpdateTeam applies the non-nil fields of req.
func (s *TeamService) UpdateTeam(ctx context.Context, code string, req UpdateTeamRequest) (*teamdb.Team, error) {
	code = NormalizeCode(code)
	result, err := withTelemetry(s, ctx, "UpdateTeam", code, func(ctx context.Context) (results.OperationResult[*teamdb.Team, error], error) {
		team, err := s.repo.GetByCode(ctx, nil, code)
		if err != nil {
			if errors.Is(err, teamdb.ErrNotFound) {
				return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: %s", ErrTeamNotFound, code)), nil
			}
			return results.OperationResult[*teamdb.Team, error]{}, fmt.Errorf("failed to load team: %w", err)
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: name cannot be empty", ErrInvalidTeam)), nil
			}
			team.Name = name
		}
		if req.Institution != nil {
			team.Institution = strings.TrimSpace(*req.Institution)
		}
		if req.Active != nil {
			team.Active = *req.Active
		}
		team.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, nil, team); err != nil {
			if errors.Is(err, teamdb.ErrNotFound) {
				return results.FailureResult[*teamdb.Team, error](fmt.Errorf("%w: %s", ErrTeamNotFound, code)), nil
			}
			return results.OperationResult[*teamdb.Team, error]{}, fmt.Errorf("failed to update team: %w", err)
		}
		return results.SuccessResult[*teamdb.Team, error](team), nil
	})
	return unwrap(result, err)
}

// GetTeam returns a team by code.
func (s *TeamService) GetTeam(ctx context.Context, code string) (*teamdb.Team, error) {
	code = NormalizeCode(code)
	team, err := s.repo.GetByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, teamdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, code)
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	return team, nil
}
