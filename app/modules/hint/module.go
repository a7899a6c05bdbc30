package hint

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	hintservice "github.com/medusa-ctf/medusa-backend/app/modules/hint/application"
	hintdomain "github.com/medusa-ctf/medusa-backend/app/modules/hint/domain"
	hinthandlers "github.com/medusa-ctf/medusa-backend/app/modules/hint/infrastructure/handlers"
	hintdb "github.com/medusa-ctf/medusa-backend/app/modules/hint/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the hint module.
type Module struct {
	service    *hintservice.HintService
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the hint module from the configured catalog and
// registers its routes. db is nil for the memory storage driver.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	requireTeam func(http.Handler) http.Handler,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing hint module")

	catalog, err := hintdomain.NewCatalog(map[hintdomain.Bucket][]hintdomain.Entry{
		hintdomain.BucketRound1:  entries(cfg.Hints.Round1),
		hintdomain.BucketAndroid: entries(cfg.Hints.Android),
		hintdomain.BucketPWN:     entries(cfg.Hints.PWN),
	})
	if err != nil {
		return nil, &config.ConfigurationError{Field: "hints", Reason: err.Error()}
	}

	var repo hintdb.Repository
	if db != nil {
		repo = hintdb.NewRepository(db)
	} else {
		logger.WarnContext(ctx, "Using in-memory hint ledger; unlocks are lost on restart")
		repo = hintdb.NewMemoryRepository()
	}

	service := hintservice.NewHintService(repo, catalog, clock.RealClock{}, logger, obs.Metrics, obs.Tracer)

	if httpRouter != nil {
		h := hinthandlers.NewHintHandlers(service, logger, obs.Tracer)
		httpRouter.Route("/api/hints", func(r chi.Router) {
			r.Use(requireTeam)
			r.Get("/", h.HandleList)
			r.Post("/{bucket}/{number}/unlock", h.HandleUnlock)
		})
	}

	return &Module{service: service, logger: logger}, nil
}

func entries(list []config.HintConfig) []hintdomain.Entry {
	out := make([]hintdomain.Entry, 0, len(list))
	for _, h := range list {
		out = append(out, hintdomain.Entry{Cost: h.Cost, Text: h.Text})
	}
	return out
}

// GetService returns the hint service; it is also the submission workflow's
// hint penalty provider.
func (m *Module) GetService() *hintservice.HintService {
	return m.service
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
	m.logger.InfoContext(ctx, "Hint module goroutine stopped")
}

// Close stops the hint module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
