package leaderboardhandlers

import (
	"log/slog"
	"net/http"
	"strconv"

	leaderboardservice "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/application"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// LeaderboardHandlers serves the public scoreboard.
type LeaderboardHandlers struct {
	service leaderboardservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewLeaderboardHandlers creates a new LeaderboardHandlers instance.
func NewLeaderboardHandlers(service leaderboardservice.Service, logger *slog.Logger, tracer trace.Tracer) *LeaderboardHandlers {
	return &LeaderboardHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleGet handles GET /api/leaderboard.
func (h *LeaderboardHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleGet")
	defer span.End()

	board, err := h.service.GetLeaderboard(ctx)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}

	httpjson.Write(w, http.StatusOK, board)
}

// HandleChart handles GET /api/leaderboard/chart.png?top=.
func (h *LeaderboardHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleChart")
	defer span.End()

	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{
				Error:         "top must be a positive integer",
				Code:          "validation_error",
				CorrelationID: attr.CorrelationIDFromContext(ctx),
			})
			return
		}
		top = n
	}

	png, err := h.service.RenderChart(ctx, top)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=15")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *LeaderboardHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	correlationID := attr.CorrelationIDFromContext(ctx)
	h.logger.ErrorContext(ctx, "Request failed",
		attr.String("correlation_id", correlationID),
		attr.String("path", r.URL.Path),
		attr.Error(err),
	)
	httpjson.WriteError(w, http.StatusInternalServerError, httpjson.ErrorBody{
		Error:         "internal error",
		Code:          "internal_error",
		CorrelationID: correlationID,
	})
}
