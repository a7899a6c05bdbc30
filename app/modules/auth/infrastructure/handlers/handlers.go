package authhandlers

import (
	"errors"
	"log/slog"
	"net/http"

	authservice "github.com/medusa-ctf/medusa-backend/app/modules/auth/application"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// AuthHandlers serves the login endpoints.
type AuthHandlers struct {
	service authservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(
	service authservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) *AuthHandlers {
	return &AuthHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleTeamLogin handles POST /api/auth/login.
func (h *AuthHandlers) HandleTeamLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleTeamLogin")
	defer span.End()
	correlationID := attr.CorrelationIDFromContext(ctx)

	var req authservice.TeamLoginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: correlationID})
		return
	}

	resp, err := h.service.TeamLogin(ctx, req)
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, resp)
}

// HandleAdminLogin handles POST /api/auth/admin/login.
func (h *AuthHandlers) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleAdminLogin")
	defer span.End()
	correlationID := attr.CorrelationIDFromContext(ctx)

	var req adminLoginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: correlationID})
		return
	}

	resp, err := h.service.AdminLogin(ctx, req.Username, req.Password)
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, resp)
}

func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	correlationID := attr.CorrelationIDFromContext(ctx)

	switch {
	case errors.Is(err, authservice.ErrInvalidRound):
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: correlationID})
	case errors.Is(err, authservice.ErrInvalidCredentials):
		httpjson.WriteError(w, http.StatusUnauthorized, httpjson.ErrorBody{Error: err.Error(), Code: "invalid_credentials", CorrelationID: correlationID})
	default:
		h.logger.ErrorContext(ctx, "Login failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.ErrorBody{
			Error:         "temporary failure, reference " + correlationID,
			Code:          "transient_error",
			CorrelationID: correlationID,
		})
	}
}
