package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"securelife/internal/policy/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/platform/httputil"
	"securelife/pkg/requestcontext"
)

// Service defines the interface for lifecycle requests.
type Service interface {
	RequestWithdrawal(ctx context.Context, policyID id.PolicyID) (models.PolicyStatus, error)
	RequestClaim(ctx context.Context, policyID id.PolicyID) (models.PolicyStatus, error)
}

// Handler handles policy lifecycle endpoints.
type Handler struct {
	logger    *slog.Logger
	lifecycle Service
}

// New creates a new lifecycle Handler.
func New(lifecycle Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		lifecycle: lifecycle,
	}
}

// Register registers the lifecycle routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policy/{policyID}/withdrawal", h.handleWithdrawal)
	r.Post("/policy/{policyID}/claim", h.handleClaim)
}

func (h *Handler) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.lifecycle.RequestWithdrawal)
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.lifecycle.RequestClaim)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, request func(context.Context, id.PolicyID) (models.PolicyStatus, error)) {
	ctx := r.Context()

	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := request(ctx, policyID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "lifecycle request failed",
				"request_id", requestcontext.RequestID(ctx),
				"policy_id", policyID.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"policyId": policyID.String(),
		"status":   status.String(),
	})
}
