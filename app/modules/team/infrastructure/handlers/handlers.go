package teamhandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	teamservice "github.com/medusa-ctf/medusa-backend/app/modules/team/application"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// TeamHandlers serves the operator team registry.
type TeamHandlers struct {
	service teamservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewTeamHandlers creates a new TeamHandlers instance.
func NewTeamHandlers(service teamservice.Service, logger *slog.Logger, tracer trace.Tracer) *TeamHandlers {
	return &TeamHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleCreate handles POST /api/admin/teams.
func (h *TeamHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TeamHandlers.HandleCreate")
	defer span.End()
	r = r.WithContext(ctx)

	var req teamservice.CreateTeamRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	team, err := h.service.CreateTeam(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusCreated, team)
}

// HandleList handles GET /api/admin/teams.
func (h *TeamHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TeamHandlers.HandleList")
	defer span.End()
	r = r.WithContext(ctx)

	teams, err := h.service.ListTeams(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, teams)
}

// HandleUpdate handles PATCH /api/admin/teams/{code}.
func (h *TeamHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TeamHandlers.HandleUpdate")
	defer span.End()
	r = r.WithContext(ctx)

	var req teamservice.UpdateTeamRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	team, err := h.service.UpdateTeam(ctx, chi.URLParam(r, "code"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, team)
}

func (h *TeamHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	correlationID := attr.CorrelationIDFromContext(ctx)

	switch {
	case errors.Is(err, teamservice.ErrInvalidTeam):
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: correlationID})
	case errors.Is(err, teamservice.ErrTeamExists):
		httpjson.WriteError(w, http.StatusConflict, httpjson.ErrorBody{Error: err.Error(), Code: "team_exists", CorrelationID: correlationID})
	case errors.Is(err, teamservice.ErrTeamNotFound):
		httpjson.WriteError(w, http.StatusNotFound, httpjson.ErrorBody{Error: err.Error(), Code: "not_found", CorrelationID: correlationID})
	default:
		h.logger.ErrorContext(ctx, "Request failed",
			attr.String("correlation_id", correlationID),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.ErrorBody{Error: "internal error", Code: "internal_error", CorrelationID: correlationID})
	}
}
