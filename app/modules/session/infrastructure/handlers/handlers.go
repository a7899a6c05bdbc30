package sessionhandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
	sessionservice "github.com/medusa-ctf/medusa-backend/app/modules/session/application"
	sessiondomain "github.com/medusa-ctf/medusa-backend/app/modules/session/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// SessionHandlers serves round start and session endpoints.
type SessionHandlers struct {
	service sessionservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSessionHandlers creates a new SessionHandlers instance.
func NewSessionHandlers(service sessionservice.Service, logger *slog.Logger, tracer trace.Tracer) *SessionHandlers {
	return &SessionHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func roundParam(r *http.Request) (int, error) {
	round, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil {
		return 0, sessiondomain.ErrInvalidRound
	}
	return round, nil
}

// HandleStart handles POST /api/rounds/{round}/start.
func (h *SessionHandlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SessionHandlers.HandleStart")
	defer span.End()
	r = r.WithContext(ctx)

	claims, ok := authdomain.ClaimsFromContext(ctx)
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, httpjson.ErrorBody{Error: "missing session", Code: "unauthorized", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	round, err := roundParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v, err := h.service.StartRound(ctx, claims.TeamCode, claims.Round, round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, v)
}

// HandleGet handles GET /api/rounds/{round}/session.
func (h *SessionHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SessionHandlers.HandleGet")
	defer span.End()
	r = r.WithContext(ctx)

	claims, ok := authdomain.ClaimsFromContext(ctx)
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, httpjson.ErrorBody{Error: "missing session", Code: "unauthorized", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	round, err := roundParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v, err := h.service.GetSession(ctx, claims.TeamCode, claims.Round, round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, v)
}

// HandleOverride handles PUT /api/admin/rounds/{round}/sessions/{team}.
func (h *SessionHandlers) HandleOverride(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SessionHandlers.HandleOverride")
	defer span.End()
	r = r.WithContext(ctx)

	round, err := roundParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req sessionservice.OverrideRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}
	req.Round = round
	req.TeamCode = chi.URLParam(r, "team")

	v, err := h.service.OverrideStart(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, v)
}

func (h *SessionHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	correlationID := attr.CorrelationIDFromContext(ctx)

	switch {
	case errors.Is(err, sessiondomain.ErrInvalidRound),
		errors.Is(err, sessiondomain.ErrUnparsableTime),
		errors.Is(err, sessiondomain.ErrMissingTeam):
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: correlationID})
	case errors.Is(err, sessiondomain.ErrRoundMismatch):
		httpjson.WriteError(w, http.StatusForbidden, httpjson.ErrorBody{Error: err.Error(), Code: "auth_mismatch", CorrelationID: correlationID})
	case errors.Is(err, sessiondomain.ErrNotStarted):
		httpjson.WriteError(w, http.StatusNotFound, httpjson.ErrorBody{Error: err.Error(), Code: "not_started", CorrelationID: correlationID})
	default:
		h.logger.ErrorContext(ctx, "Request failed",
			attr.String("correlation_id", correlationID),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.ErrorBody{Error: "internal error", Code: "internal_error", CorrelationID: correlationID})
	}
}
