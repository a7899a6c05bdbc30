package team

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	authservice "github.com/medusa-ctf/medusa-backend/app/modules/auth/application"
	teamservice "github.com/medusa-ctf/medusa-backend/app/modules/team/application"
	teamhandlers "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/handlers"
	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the team registry module.
type Module struct {
	repo       teamdb.Repository
	service    teamservice.Service
	handlers   *teamhandlers.TeamHandlers
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the team module. db is nil for the memory storage driver.
// Routes are registered separately because they need the auth guard, and the
// auth module in turn needs Credentials.
func NewModule(ctx context.Context, obs observability.Observability, db *bun.DB) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing team module")

	var repo teamdb.Repository
	if db != nil {
		repo = teamdb.NewRepository(db)
	} else {
		logger.WarnContext(ctx, "Using in-memory team registry; teams are lost on restart")
		repo = teamdb.NewMemoryRepository()
	}

	service := teamservice.NewTeamService(repo, clock.RealClock{}, logger, obs.Metrics, obs.Tracer)

	return &Module{
		repo:     repo,
		service:  service,
		handlers: teamhandlers.NewTeamHandlers(service, logger, obs.Tracer),
		logger:   logger,
	}
}

// RegisterRoutes mounts the operator routes behind requireAdmin.
func (m *Module) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/admin/teams", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/", m.handlers.HandleCreate)
		r.Get("/", m.handlers.HandleList)
		r.Patch("/{code}", m.handlers.HandleUpdate)
	})
}

// GetService returns the team service.
func (m *Module) GetService() teamservice.Service {
	return m.service
}

// Repository returns the registry store; the leaderboard reads it in memory mode.
func (m *Module) Repository() teamdb.Repository {
	return m.repo
}

// Credentials exposes access hashes to the auth module.
func (m *Module) Credentials() authservice.TeamCredentials {
	return credentials{service: m.service}
}

type credentials struct {
	service teamservice.Service
}

func (c credentials) GetCredentials(ctx context.Context, teamCode string) (*authservice.TeamCredential, error) {
	team, err := c.service.GetTeam(ctx, teamCode)
	if err != nil {
		if errors.Is(err, teamservice.ErrTeamNotFound) {
			return nil, authservice.ErrUnknownTeam
		}
		return nil, err
	}
	return &authservice.TeamCredential{
		TeamCode:   team.Code,
		AccessHash: team.AccessHash,
		Active:     team.Active,
	}, nil
}

// Run blocks until ctx is cancelled. The module only serves HTTP.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Team module goroutine stopped")
}

// Close stops the team module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
