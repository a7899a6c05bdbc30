package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	sessionservice "github.com/medusa-ctf/medusa-backend/app/modules/session/application"
	sessionhandlers "github.com/medusa-ctf/medusa-backend/app/modules/session/infrastructure/handlers"
	sessiondb "github.com/medusa-ctf/medusa-backend/app/modules/session/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the round session module.
type Module struct {
	service    *sessionservice.SessionService
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the session module and registers its routes. db is nil
// for the memory storage driver.
func NewModule(
	ctx context.Context,
	obs observability.Observability,
	db *bun.DB,
	requireTeam func(http.Handler) http.Handler,
	requireAdmin func(http.Handler) http.Handler,
	httpRouter chi.Router,
) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing session module")

	var repo sessiondb.Repository
	if db != nil {
		repo = sessiondb.NewRepository(db)
	} else {
		logger.WarnContext(ctx, "Using in-memory round sessions; starts are lost on restart")
		repo = sessiondb.NewMemoryRepository()
	}

	service := sessionservice.NewSessionService(repo, clock.RealClock{}, logger, obs.Metrics, obs.Tracer)

	if httpRouter != nil {
		h := sessionhandlers.NewSessionHandlers(service, logger, obs.Tracer)
		httpRouter.Route("/api/rounds/{round}", func(r chi.Router) {
			r.Use(requireTeam)
			r.Post("/start", h.HandleStart)
			r.Get("/session", h.HandleGet)
		})
		httpRouter.With(requireAdmin).Put("/api/admin/rounds/{round}/sessions/{team}", h.HandleOverride)
	}

	return &Module{
		service: service,
		logger:  logger,
	}
}

// GetService returns the session service; it also serves as the submission
// workflow's round start provider.
func (m *Module) GetService() *sessionservice.SessionService {
	return m.service
}

// SetRecalculationScheduler wires rescoring after overrides.
func (m *Module) SetRecalculationScheduler(scheduler sessionservice.RecalculationScheduler) {
	m.service.SetScheduler(scheduler)
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
	m.logger.InfoContext(ctx, "Session module goroutine stopped")
}

// Close stops the session module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
