package submissionhandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	authdomain "github.com/medusa-ctf/medusa-backend/app/modules/auth/domain"
	submissionservice "github.com/medusa-ctf/medusa-backend/app/modules/submission/application"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/medusa-ctf/medusa-backend/pkg/httpjson"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// SubmissionHandlers serves the team and operator submission endpoints.
type SubmissionHandlers struct {
	service submissionservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSubmissionHandlers creates a new SubmissionHandlers instance.
func NewSubmissionHandlers(
	service submissionservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) *SubmissionHandlers {
	return &SubmissionHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

type submitRequest struct {
	Flag          string `json:"flag"`
	Round         int    `json:"round"`
	ChallengeType string `json:"challengeType,omitempty"`
}

type submittedAtRequest struct {
	SubmittedAt time.Time `json:"submittedAt"`
}

// HandleSubmit handles POST /api/submissions.
func (h *SubmissionHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleSubmit")
	defer span.End()
	r = r.WithContext(ctx)

	claims, ok := authdomain.ClaimsFromContext(ctx)
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, httpjson.ErrorBody{Error: "missing session", Code: "unauthorized", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	var req submitRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		h.writeError(w, r, &submissiondomain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	res, err := h.service.Submit(ctx, submissionservice.SubmitCommand{
		Identity:      submissionservice.Identity{TeamCode: claims.TeamCode, Round: claims.Round},
		Flag:          req.Flag,
		Round:         req.Round,
		ChallengeType: submissiondomain.ChallengeType(strings.TrimSpace(req.ChallengeType)),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, res)
}

// HandleStatus handles GET /api/submissions/status.
func (h *SubmissionHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleStatus")
	defer span.End()
	r = r.WithContext(ctx)

	claims, ok := authdomain.ClaimsFromContext(ctx)
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, httpjson.ErrorBody{Error: "missing session", Code: "unauthorized", CorrelationID: attr.CorrelationIDFromContext(ctx)})
		return
	}

	status, err := h.service.GetAttemptStatus(ctx, claims.TeamCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, status)
}

// HandleUpdateSubmittedAt handles PUT /api/admin/submissions/{id}/submitted-at.
func (h *SubmissionHandlers) HandleUpdateSubmittedAt(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleUpdateSubmittedAt")
	defer span.End()
	r = r.WithContext(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, &submissiondomain.ValidationError{Field: "id", Reason: "must be a uuid"})
		return
	}

	var req submittedAtRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		h.writeError(w, r, &submissiondomain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	attempt, err := h.service.UpdateSubmittedAt(ctx, id, req.SubmittedAt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, attempt)
}

// HandleReverify handles POST /api/admin/submissions/{id}/reverify.
func (h *SubmissionHandlers) HandleReverify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleReverify")
	defer span.End()
	r = r.WithContext(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, &submissiondomain.ValidationError{Field: "id", Reason: "must be a uuid"})
		return
	}

	attempt, err := h.service.Reverify(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, attempt)
}

// HandleList handles GET /api/admin/submissions?team=.
func (h *SubmissionHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleList")
	defer span.End()
	r = r.WithContext(ctx)

	attempts, err := h.service.ListAttempts(ctx, strings.TrimSpace(r.URL.Query().Get("team")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, attempts)
}

// HandleExport handles GET /api/admin/submissions/export.xlsx.
func (h *SubmissionHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmissionHandlers.HandleExport")
	defer span.End()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="submissions.xlsx"`)
	if err := h.service.ExportXLSX(ctx, w); err != nil {
		// headers may already be flushed; nothing useful left to send
		h.logger.ErrorContext(ctx, "Export failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
	}
}

// writeError maps workflow errors onto status codes. Only TransientError
// hides its detail.
func (h *SubmissionHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	correlationID := attr.CorrelationIDFromContext(ctx)

	var (
		limitErr     *submissiondomain.AttemptLimitError
		duplicateErr *submissiondomain.DuplicateSubmissionError
		transientErr *submissiondomain.TransientError
	)

	switch {
	case errors.Is(err, submissiondomain.ErrValidation):
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.ErrorBody{Error: err.Error(), Code: "validation_error", CorrelationID: correlationID})
	case errors.Is(err, submissiondomain.ErrAuthMismatch):
		httpjson.WriteError(w, http.StatusForbidden, httpjson.ErrorBody{Error: err.Error(), Code: "auth_mismatch", CorrelationID: correlationID})
	case errors.As(err, &limitErr):
		httpjson.WriteError(w, http.StatusForbidden, httpjson.ErrorBody{
			Error:         err.Error(),
			Code:          "attempt_limit_exceeded",
			CorrelationID: correlationID,
			Details: map[string]int{
				"maxAttempts":       limitErr.Max,
				"used":              limitErr.Used,
				"remainingAttempts": 0,
			},
		})
	case errors.As(err, &duplicateErr):
		httpjson.WriteError(w, http.StatusConflict, httpjson.ErrorBody{
			Error:         err.Error(),
			Code:          "duplicate_submission",
			CorrelationID: correlationID,
			Details:       map[string]time.Time{"originalSubmittedAt": duplicateErr.OriginalSubmittedAt.UTC()},
		})
	case errors.Is(err, submissiondomain.ErrAttemptNotFound):
		httpjson.WriteError(w, http.StatusNotFound, httpjson.ErrorBody{Error: err.Error(), Code: "not_found", CorrelationID: correlationID})
	default:
		if errors.As(err, &transientErr) && transientErr.CorrelationID != "" {
			correlationID = transientErr.CorrelationID
		}
		h.logger.ErrorContext(ctx, "Request failed",
			attr.String("correlation_id", correlationID),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		httpjson.WriteError(w, http.StatusInternalServerError, httpjson.ErrorBody{
			Error:         "temporary failure, reference " + correlationID,
			Code:          "transient_error",
			CorrelationID: correlationID,
		})
	}
}
