package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	leaderboardservice "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/application"
	leaderboardcache "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/cache"
	leaderboardhandlers "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/handlers"
	leaderboarddb "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/repositories"
	leaderboardsubscribers "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/infrastructure/subscribers"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	teamdb "github.com/medusa-ctf/medusa-backend/app/modules/team/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/pkg/eventbus"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// Dependencies are the stores the leaderboard reads from.
type Dependencies struct {
	// DB is nil for the memory storage driver, in which case Teams and
	// Attempts are ranked in process.
	DB       *bun.DB
	Teams    teamdb.Repository
	Attempts submissiondb.Repository
	EventBus eventbus.EventBus
}

// Module represents the leaderboard module.
type Module struct {
	service     leaderboardservice.Service
	subscribers *leaderboardsubscribers.Subscribers
	redis       *leaderboardcache.RedisCache
	cancelFunc  context.CancelFunc
	logger      *slog.Logger
}

// NewModule creates the leaderboard module and registers its public routes.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	deps Dependencies,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing leaderboard module")

	var repo leaderboarddb.Repository
	if deps.DB != nil {
		repo = leaderboarddb.NewRepository(deps.DB)
	} else {
		repo = leaderboarddb.NewComputedRepository(deps.Teams, deps.Attempts)
	}

	m := &Module{logger: logger}

	var cache leaderboardcache.Cache = leaderboardcache.NoopCache{}
	if cfg.Redis.Addr != "" {
		rc, err := leaderboardcache.NewRedisCache(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.TTL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect leaderboard cache: %w", err)
		}
		m.redis = rc
		cache = rc
	}

	service := leaderboardservice.NewLeaderboardService(repo, cache, logger, obs.Metrics, obs.Tracer)
	m.service = service

	if deps.EventBus != nil {
		m.subscribers = leaderboardsubscribers.NewSubscribers(deps.EventBus, service, logger)
	}

	if httpRouter != nil {
		h := leaderboardhandlers.NewLeaderboardHandlers(service, logger, obs.Tracer)
		httpRouter.Route("/api/leaderboard", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Get("/chart.png", h.HandleChart)
		})
	}

	return m, nil
}

// GetService returns the leaderboard service.
func (m *Module) GetService() leaderboardservice.Service {
	return m.service
}

// Run subscribes to submission events and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.subscribers != nil {
		if err := m.subscribers.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start leaderboard subscribers", "error", err)
			return
		}
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the leaderboard module.
func (m *Module) Close() error {
	m.logger.Info("Stopping leaderboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			return fmt.Errorf("error closing leaderboard cache: %w", err)
		}
	}
	return nil
}
