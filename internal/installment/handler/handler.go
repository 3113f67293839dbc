package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"securelife/internal/installment"
	ledgermodels "securelife/internal/ledger/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/platform/httputil"
	"securelife/pkg/requestcontext"
)

// Service defines the interface for installment view operations.
type Service interface {
	Schedule(ctx context.Context, policyID id.PolicyID) (*installment.View, error)
	Transactions(ctx context.Context, policyID id.PolicyID) ([]*ledgermodels.Transaction, error)
	Receipt(ctx context.Context, txID id.TransactionID) (*installment.Receipt, error)
}

// Handler handles installment view endpoints.
type Handler struct {
	logger *slog.Logger
	views  Service
}

// New creates a new installment Handler.
func New(views Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		views:  views,
	}
}

// Register registers the view routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/policy/{policyID}/schedule", h.handleGetSchedule)
	r.Get("/policy/{policyID}/transactions", h.handleListTransactions)
	r.Get("/transaction/{transactionID}/receipt", h.handleGetReceipt)
}

type installmentView struct {
	Index         int        `json:"index"`
	DueAmount     string     `json:"dueAmount"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transactionId,omitempty"`
	PaidAmount    string     `json:"paidAmount,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

type scheduleResponse struct {
	PolicyID          string            `json:"policyId"`
	PolicyStatus      string            `json:"policyStatus"`
	TotalInvestment   string            `json:"totalInvestmentAmount"`
	TotalInstallments int               `json:"totalInstallments"`
	Installments      []installmentView `json:"installments"`
	NextPendingIndex  *int              `json:"nextPendingIndex"`
	OverpaymentCount  int               `json:"overpaymentCount,omitempty"`
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.views.Schedule(ctx, policyID)
	if err != nil {
		h.writeServiceError(ctx, w, err, policyID.String())
		return
	}

	resp := scheduleResponse{
		PolicyID:          view.PolicyID.String(),
		PolicyStatus:      view.PolicyStatus.String(),
		TotalInvestment:   view.TotalInvestment,
		TotalInstallments: view.TotalInstallments,
		Installments:      make([]installmentView, 0, len(view.Installments)),
		OverpaymentCount:  len(view.Overpayments),
	}
	// nextPendingIndex is null when the policy is fully funded.
	if view.NextPendingIndex > 0 {
		next := view.NextPendingIndex
		resp.NextPendingIndex = &next
	}
	for _, inst := range view.Installments {
		iv := installmentView{
			Index:     inst.Index,
			DueAmount: inst.DueAmount.StringFixed(2),
			Status:    string(inst.Status),
		}
		if !inst.TransactionID.IsZero() {
			iv.TransactionID = inst.TransactionID.String()
			iv.PaidAmount = inst.PaidAmount.StringFixed(2)
			paidAt := inst.PaidAt
			iv.PaidAt = &paidAt
		}
		resp.Installments = append(resp.Installments, iv)
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

type transactionView struct {
	TransactionID string    `json:"transactionId"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	GatewayRef    string    `json:"gatewayRef,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	transactions, err := h.views.Transactions(ctx, policyID)
	if err != nil {
		h.writeServiceError(ctx, w, err, policyID.String())
		return
	}

	views := make([]transactionView, 0, len(transactions))
	for _, tx := range transactions {
		views = append(views, transactionView{
			TransactionID: tx.ID.String(),
			Amount:        tx.Amount.StringFixed(2),
			Status:        tx.Status.String(),
			GatewayRef:    tx.GatewayRef,
			OccurredAt:    tx.OccurredAt,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"policyId":     policyID.String(),
		"transactions": views,
	})
}

type receiptResponse struct {
	TransactionID    string    `json:"transactionId"`
	PolicyID         string    `json:"policyId"`
	Amount           string    `json:"amount"`
	Status           string    `json:"status"`
	GatewayRef       string    `json:"gatewayRef,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
	InstallmentIndex int       `json:"installmentIndex,omitempty"`
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txID, err := id.ParseTransactionID(chi.URLParam(r, "transactionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.views.Receipt(ctx, txID)
	if err != nil {
		h.writeServiceError(ctx, w, err, txID.String())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receiptResponse{
		TransactionID:    receipt.TransactionID.String(),
		PolicyID:         receipt.PolicyID.String(),
		Amount:           receipt.Amount,
		Status:           receipt.Status.String(),
		GatewayRef:       receipt.GatewayRef,
		OccurredAt:       receipt.OccurredAt,
		InstallmentIndex: receipt.InstallmentIndex,
	})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, subject string) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "view assembly failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject", subject,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
