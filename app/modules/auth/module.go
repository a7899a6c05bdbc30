package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	authservice "github.com/medusa-ctf/medusa-backend/app/modules/auth/application"
	authhandlers "github.com/medusa-ctf/medusa-backend/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/medusa-ctf/medusa-backend/app/modules/auth/infrastructure/jwt"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"golang.org/x/time/rate"
)

// Module represents the auth module.
type Module struct {
	config     *config.Config
	service    authservice.Service
	handlers   *authhandlers.AuthHandlers
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates a new auth module and registers its HTTP routes.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	teams authservice.TeamCredentials,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "Initializing auth module")

	jwtProvider := authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer)

	service := authservice.NewService(
		jwtProvider,
		teams,
		authservice.Config{
			DefaultTTL:        cfg.JWT.DefaultTTL,
			AdminUsername:     cfg.Admin.Username,
			AdminPasswordHash: cfg.Admin.PasswordHash,
		},
		logger,
		tracer,
	)

	handlers := authhandlers.NewAuthHandlers(service, logger, tracer)

	if httpRouter != nil {
		limiter := authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
		httpRouter.Route("/api/auth", func(r chi.Router) {
			r.Use(authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins))
			r.Use(authhandlers.RateLimitMiddleware(limiter))

			r.Post("/login", handlers.HandleTeamLogin)
			r.Post("/admin/login", handlers.HandleAdminLogin)
		})
	}

	return &Module{
		config:   cfg,
		service:  service,
		handlers: handlers,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is cancelled. The module only serves HTTP.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting auth module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Auth module goroutine stopped")
}

// Close stops the auth module.
func (m *Module) Close() error {
	m.logger.Info("Stopping auth module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}

// RequireTeam guards team routes of other modules.
func (m *Module) RequireTeam() func(next http.Handler) http.Handler {
	return authhandlers.RequireTeam(m.service)
}

// RequireAdmin guards operator routes of other modules.
func (m *Module) RequireAdmin() func(next http.Handler) http.Handler {
	return authhandlers.RequireAdmin(m.service)
}
