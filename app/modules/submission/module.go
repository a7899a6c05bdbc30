package submission

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	submissionservice "github.com/medusa-ctf/medusa-backend/app/modules/submission/application"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	submissionevents "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/events"
	submissionhandlers "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/handlers"
	submissionqueue "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/queue"
	submissiondb "github.com/medusa-ctf/medusa-backend/app/modules/submission/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/eventbus"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/uptrace/bun"
)

// RecalculationScheduler rescores a team's round after its start moved.
type RecalculationScheduler interface {
	ScheduleRecalculation(ctx context.Context, teamCode string, round int) error
}

// Dependencies are the collaborators owned by other modules.
type Dependencies struct {
	// DB is nil for the memory storage driver.
	DB           *bun.DB
	EventBus     eventbus.EventBus
	Sessions     submissionservice.RoundStartProvider
	Hints        submissionservice.HintPenaltyProvider
	RequireTeam  func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
	// RateLimit wraps the submit route. Optional.
	RateLimit func(http.Handler) http.Handler
}

// Module represents the submission module.
type Module struct {
	Service    submissionservice.Service
	repo       submissiondb.Repository
	queue      *submissionqueue.Service
	scheduler  RecalculationScheduler
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the submission module and registers its HTTP routes.
// Flag settings that fail to compile are reported as configuration errors.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	deps Dependencies,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "Initializing submission module")

	format, err := submissiondomain.NewFlagFormat(cfg.Flags.Prefix, cfg.Flags.PWNPrefix)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "flags.prefix", Reason: err.Error()}
	}
	secrets, err := submissiondomain.NewFlagSecrets(format, cfg.Flags.Round1, cfg.Flags.Android, cfg.Flags.PWNUser, cfg.Flags.PWNRoot)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "flags", Reason: err.Error()}
	}

	var repo submissiondb.Repository
	if deps.DB != nil {
		repo = submissiondb.NewRepository(deps.DB)
	} else {
		logger.WarnContext(ctx, "Using in-memory attempt ledger; attempts are lost on restart")
		repo = submissiondb.NewMemoryRepository()
	}

	var publisher submissionservice.EventPublisher
	if deps.EventBus != nil {
		publisher = submissionevents.NewPublisher(deps.EventBus)
	}

	if cfg.Event.Round1Start.IsZero() || cfg.Event.Round2Start.IsZero() {
		return nil, &config.ConfigurationError{Field: "event", Reason: "round1_start and round2_start must be set"}
	}
	roundStarts := map[int]time.Time{
		1: cfg.Event.Round1Start,
		2: cfg.Event.Round2Start,
	}

	service := submissionservice.NewSubmissionService(
		repo,
		deps.Sessions,
		deps.Hints,
		publisher,
		submissionservice.Rules{
			Format:      format,
			Secrets:     secrets,
			RoundStarts: roundStarts,
			UnitTimeout: cfg.Submission.UnitTimeout,
		},
		clock.RealClock{},
		logger,
		obs.Metrics,
		tracer,
	)

	m := &Module{
		Service: service,
		repo:    repo,
		logger:  logger,
	}

	if cfg.Queue.Enabled && deps.DB != nil {
		queue, err := submissionqueue.NewService(ctx, deps.DB, cfg.Postgres.DSN, service, logger, obs.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create submission queue: %w", err)
		}
		m.queue = queue
		m.scheduler = queue
	} else {
		m.scheduler = submissionqueue.NewInlineScheduler(service, logger)
	}

	if httpRouter != nil {
		registerRoutes(httpRouter, submissionhandlers.NewSubmissionHandlers(service, logger, tracer), deps)
	}

	return m, nil
}

func registerRoutes(r chi.Router, h *submissionhandlers.SubmissionHandlers, deps Dependencies) {
	rateLimit := deps.RateLimit
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/submissions", func(r chi.Router) {
		r.Use(deps.RequireTeam)
		r.With(rateLimit).Post("/", h.HandleSubmit)
		r.Get("/status", h.HandleStatus)
	})

	r.Route("/api/admin/submissions", func(r chi.Router) {
		r.Use(deps.RequireAdmin)
		r.Get("/", h.HandleList)
		r.Get("/export.xlsx", h.HandleExport)
		r.Put("/{id}/submitted-at", h.HandleUpdateSubmittedAt)
		r.Post("/{id}/reverify", h.HandleReverify)
	})
}

// Scheduler returns the rescoring scheduler: the River queue when enabled,
// inline rescoring otherwise.
func (m *Module) Scheduler() RecalculationScheduler {
	return m.scheduler
}

// Repository returns the attempt ledger.
func (m *Module) Repository() submissiondb.Repository {
	return m.repo
}

// Run starts the job queue, if any, and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting submission module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.queue != nil {
		// Close stops the queue gracefully; do not tie River to ctx cancellation
		if err := m.queue.Start(context.WithoutCancel(ctx)); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start submission queue", "error", err)
			return
		}
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Submission module goroutine stopped")
}

// Close stops the submission module.
func (m *Module) Close() error {
	m.logger.Info("Stopping submission module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.queue != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.queue.Stop(stopCtx); err != nil {
			m.logger.Error("Error stopping submission queue", "error", err)
			return fmt.Errorf("error stopping submission queue: %w", err)
		}
	}

	m.logger.Info("Submission module stopped")
	return nil
}
