package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medusa-ctf/medusa-backend/app/modules/auth"
	authhandlers "github.com/medusa-ctf/medusa-backend/app/modules/auth/infrastructure/handlers"
	"github.com/medusa-ctf/medusa-backend/app/modules/hint"
	"github.com/medusa-ctf/medusa-backend/app/modules/leaderboard"
	"github.com/medusa-ctf/medusa-backend/app/modules/session"
	"github.com/medusa-ctf/medusa-backend/app/modules/submission"
	"github.com/medusa-ctf/medusa-backend/app/modules/team"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/pkg/eventbus"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/time/rate"
)

// App holds the modules and the shared infrastructure they run on.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	Router        chi.Router
	DB            *bun.DB
	EventBus      eventbus.EventBus

	TeamModule        *team.Module
	AuthModule        *auth.Module
	SessionModule     *session.Module
	HintModule        *hint.Module
	SubmissionModule  *submission.Module
	LeaderboardModule *leaderboard.Module

	server        *http.Server
	metricsServer *http.Server
	wg            sync.WaitGroup
}

// NewApp wires every module. Configuration errors are returned unwrapped so
// the caller can exit before serving traffic.
func NewApp(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	app := &App{
		Config:        cfg,
		Observability: obs,
	}
	if err := app.initialize(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	return app, nil
}

func (app *App) initialize(ctx context.Context) error {
	cfg := app.Config
	obs := app.Observability
	logger := obs.Logger

	if cfg.Storage.Driver == "postgres" {
		app.DB = openDB(cfg.Postgres.DSN)
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := app.DB.PingContext(pingCtx); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.InfoContext(ctx, "Connected to postgres")
	} else {
		logger.WarnContext(ctx, "Running with the memory storage driver")
	}

	if cfg.NATS.URL != "" {
		bus, err := eventbus.NewNATS(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		app.EventBus = bus
	} else {
		app.EventBus = eventbus.NewInMemory(logger)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins))
	router.Get("/healthz", app.handleHealth)
	if cfg.Observability.MetricsAddress == "" {
		router.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))
	}
	app.Router = router

	app.TeamModule = team.NewModule(ctx, obs, app.DB)

	authModule, err := auth.NewModule(ctx, cfg, obs, app.TeamModule.Credentials(), router)
	if err != nil {
		return fmt.Errorf("failed to initialize auth module: %w", err)
	}
	app.AuthModule = authModule
	app.TeamModule.RegisterRoutes(router, authModule.RequireAdmin())

	app.SessionModule = session.NewModule(ctx, obs, app.DB, authModule.RequireTeam(), authModule.RequireAdmin(), router)

	hintModule, err := hint.NewModule(ctx, cfg, obs, app.DB, authModule.RequireTeam(), router)
	if err != nil {
		return err
	}
	app.HintModule = hintModule

	submitLimiter := authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
	submissionModule, err := submission.NewModule(ctx, cfg, obs, submission.Dependencies{
		DB:           app.DB,
		EventBus:     app.EventBus,
		Sessions:     app.SessionModule.GetService(),
		Hints:        hintModule.GetService(),
		RequireTeam:  authModule.RequireTeam(),
		RequireAdmin: authModule.RequireAdmin(),
		RateLimit:    authhandlers.RateLimitMiddleware(submitLimiter),
	}, router)
	if err != nil {
		return err
	}
	app.SubmissionModule = submissionModule
	app.SessionModule.SetRecalculationScheduler(submissionModule.Scheduler())

	leaderboardModule, err := leaderboard.NewModule(ctx, cfg, obs, leaderboard.Dependencies{
		DB:       app.DB,
		Teams:    app.TeamModule.Repository(),
		Attempts: submissionModule.Repository(),
		EventBus: app.EventBus,
	}, router)
	if err != nil {
		return err
	}
	app.LeaderboardModule = leaderboardModule

	logger.InfoContext(ctx, "All modules initialized",
		attr.String("storage_driver", cfg.Storage.Driver),
		attr.Bool("queue_enabled", cfg.Queue.Enabled),
		attr.Bool("nats", cfg.NATS.URL != ""),
		attr.Bool("redis", cfg.Redis.Addr != ""),
	)
	return nil
}

func openDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if app.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.DB.PingContext(ctx); err != nil {
			httpjson.WriteError(w, http.StatusServiceUnavailable, httpjson.ErrorBody{
				Error:         "database unavailable",
				Code:          "unavailable",
				CorrelationID: attr.CorrelationIDFromContext(r.Context()),
			})
			return
		}
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartModules launches every module's Run loop. Close waits for them.
func (app *App) StartModules(ctx context.Context) {
	runners := []interface {
		Run(ctx context.Context, wg *sync.WaitGroup)
	}{
		app.TeamModule,
		app.AuthModule,
		app.SessionModule,
		app.HintModule,
		app.SubmissionModule,
		app.LeaderboardModule,
	}
	for _, m := range runners {
		app.wg.Add(1)
		go m.Run(ctx, &app.wg)
	}
}

// Run starts the modules and the HTTP servers, then blocks until ctx is
// cancelled.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger
	app.StartModules(ctx)

	errCh := make(chan error, 2)

	app.server = &http.Server{
		Addr:              app.Config.HTTP.Address,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if addr := app.Config.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry, promhttp.HandlerOpts{}))
		app.metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.InfoContext(ctx, "Metrics server listening", attr.String("address", addr))
			if err := app.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close drains the HTTP servers, stops every module and releases the
// database and event bus.
func (app *App) Close() {
	logger := app.Observability.Logger
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, srv := range []*http.Server{app.server, app.metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", attr.Error(err))
		}
	}

	closers := []struct {
		name   string
		closer interface{ Close() error }
	}{
		{"leaderboard", app.LeaderboardModule},
		{"submission", app.SubmissionModule},
		{"hint", app.HintModule},
		{"session", app.SessionModule},
		{"auth", app.AuthModule},
		{"team", app.TeamModule},
	}
	for _, c := range closers {
		if err := c.closer.Close(); err != nil {
			logger.Error("Module close failed", attr.String("module", c.name), attr.Error(err))
		}
	}

	waitDone := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for modules to stop")
	}

	app.closeInfrastructure()
	logger.Info("Shutdown complete")
}

func (app *App) closeInfrastructure() {
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.Observability.Logger.Error("Event bus close failed", slog.Any("error", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Observability.Logger.Error("Database close failed", slog.Any("error", err))
		}
	}
}
