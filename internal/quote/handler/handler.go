package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"securelife/internal/quote/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/platform/httputil"
	"securelife/pkg/requestcontext"
)

// Service defines the interface for quote operations.
type Service interface {
	Quote(ctx context.Context, policyID id.PolicyID, index int) (*models.Quote, error)
}

// Handler handles quote endpoints.
type Handler struct {
	logger *slog.Logger
	quotes Service
}

// New creates a new quote Handler.
func New(quotes Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		quotes: quotes,
	}
}

// Register registers the quote routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/policy/{policyID}/installments/{index}/quote", h.handleGetQuote)
}

type quoteResponse struct {
	QuoteID          string    `json:"quoteId"`
	PolicyID         string    `json:"policyId"`
	InstallmentIndex int       `json:"installmentIndex"`
	BaseAmount       string    `json:"baseAmount"`
	TaxRate          string    `json:"taxRate"`
	TotalAmount      string    `json:"totalAmount"`
	IssuedAt         time.Time `json:"issuedAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

func (h *Handler) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "installment index must be an integer"))
		return
	}

	q, err := h.quotes.Quote(ctx, policyID, index)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to issue quote",
				"request_id", requestcontext.RequestID(ctx),
				"policy_id", policyID.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, quoteResponse{
		QuoteID:          q.ID.String(),
		PolicyID:         q.PolicyID.String(),
		InstallmentIndex: q.InstallmentIndex,
		BaseAmount:       q.BaseAmount.StringFixed(2),
		TaxRate:          q.TaxRate.String(),
		TotalAmount:      q.TotalAmount.StringFixed(2),
		IssuedAt:         q.IssuedAt,
		ExpiresAt:        q.ExpiresAt,
	})
}
