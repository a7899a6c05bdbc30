package hinthandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
	hintservice "github.com/medusa-ctf/medusa-backend/app/modules/hint/application"
	hintdomain "github.com/medusa-ctf/medusa-backend/app/modules/hint/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// HintHandlers serves the team hint endpoints.
type HintHandlers struct {
	service hintservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHintHandlers creates a new HintHandlers instance.
func NewHintHandlers(service hintservice.Service, logger *slog.Logger, tracer trace.Tracer) *HintHandlers {
	return &HintHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleUnlock handles POST /api/hints/{bucket}/{number}/unlock.
func (h *HintHandlers) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HintHandlers.HandleUnlock")
	defer span.End()
	r = r.WithContext(ctx)

	claims, ok := authdomain.ClaimsFromContext(ctx)
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, httpjson.ErrorBody{Error: "missing session", Code: "unauthorized", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		h.writeError(w, r, hintdomain.ErrUnknownHint)
		return
	}

	res, err := h.service.Unlock(ctx, claims.TeamCode, claims.Round, chi.URLParam(r, "bucket"), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// HandleList handles GET /api/hints.
func (h *HintHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HintHandlers.HandleList")
	defer span.End()
	r = r.WithContext(ctx)

	claims, ok := authdomain.ClaimsFromContext(ctx)
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, httpjson.ErrorBody{Error: "missing session", Code: "unauthorized", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	views, err := h.service.List(ctx, claims.TeamCode, claims.Round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, views)
}

func (h *HintHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	correlationID := attr.CorrelationIDFromContext(ctx)

	switch {
	case errors.Is(err, hintdomain.ErrUnknownBucket), errors.Is(err, hintdomain.ErrUnknownHint):
		httpjson.WriteError(w, http.StatusNotFound, httpjson.ErrorBody{Error: err.Error(), Code: "not_found", CorrelationID: correlationID})
	case errors.Is(err, hintdomain.ErrOutOfOrder):
		httpjson.WriteError(w, http.StatusConflict, httpjson.ErrorBody{Error: err.Error(), Code: "out_of_order", CorrelationID: correlationID})
	case errors.Is(err, hintdomain.ErrRoundMismatch):
		httpjson.WriteError(w, http.StatusForbidden, httpjson.ErrorBody{Error: err.Error(), Code: "auth_mismatch", CorrelationID: correlationID})
	default:
		h.logger.ErrorContext(ctx, "Request failed",
			attr.String("correlation_id", correlationID),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.ErrorBody{Error: "internal error", Code: "internal_error", CorrelationID: correlationID})
	}
}
