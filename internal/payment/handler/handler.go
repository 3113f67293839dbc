package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	ledgermodels "securelife/internal/ledger/models"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/platform/httputil"
	"securelife/pkg/requestcontext"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Gateway-Signature"

// maxWebhookBody caps how much of a webhook request is read.
const maxWebhookBody = 1 << 16

// Service defines the interface for payment operations.
type Service interface {
	Charge(ctx context.Context, policyID id.PolicyID, index int, quoteID id.QuoteID, paymentMethodToken string) (*ledgermodels.Transaction, error)
	Confirm(ctx context.Context, gatewayRef string, outcome ledgermodels.TransactionStatus) (*ledgermodels.Transaction, error)
}

// Handler handles payment endpoints.
type Handler struct {
	logger        *slog.Logger
	payments      Service
	webhookSecret []byte
}

// New creates a new payment Handler. webhookSecret signs gateway webhooks.
func New(payments Service, webhookSecret string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		payments:      payments,
		webhookSecret: []byte(webhookSecret),
	}
}

// Register registers the payment routes with the chi router. The webhook is
// registered separately because it authenticates with an HMAC signature, not
// a user token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policy/{policyID}/installments/{index}/pay", h.handlePay)
}

// RegisterWebhook registers the gateway confirmation endpoint.
func (h *Handler) RegisterWebhook(r chi.Router) {
	r.Post("/payments/webhook", h.handleWebhook)
}

type payRequest struct {
	QuoteID            string `json:"quoteId"`
	PaymentMethodToken string `json:"paymentMethodToken"`
}

type transactionResponse struct {
	TransactionID string    `json:"transactionId"`
	PolicyID      string    `json:"policyId"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	GatewayRef    string    `json:"gatewayRef,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func toTransactionResponse(tx *ledgermodels.Transaction) transactionResponse {
	return transactionResponse{
		TransactionID: tx.ID.String(),
		PolicyID:      tx.PolicyID.String(),
		Amount:        tx.Amount.StringFixed(2),
		Status:        tx.Status.String(),
		GatewayRef:    tx.GatewayRef,
		OccurredAt:    tx.OccurredAt,
	}
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
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

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	quoteID, err := id.ParseQuoteID(req.QuoteID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tx, err := h.payments.Charge(ctx, policyID, index, quoteID, req.PaymentMethodToken)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) || dErrors.Is(err, dErrors.CodePaymentGateway) {
			h.logger.ErrorContext(ctx, "charge failed",
				"request_id", requestcontext.RequestID(ctx),
				"policy_id", policyID.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	// The submission is acknowledged but not final; the webhook settles it.
	httputil.WriteJSON(w, http.StatusAccepted, toTransactionResponse(tx))
}

type webhookRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable request body"))
		return
	}

	if !h.verifySignature(body, r.Header.Get(SignatureHeader)) {
		h.logger.WarnContext(ctx, "webhook signature rejected",
			"request_id", requestcontext.RequestID(ctx),
			"remote_ip", requestcontext.ClientIP(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook signature"))
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	outcome, err := ledgermodels.ParseTransactionStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tx, err := h.payments.Confirm(ctx, req.Reference, outcome)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "webhook confirmation failed",
				"request_id", requestcontext.RequestID(ctx),
				"gateway_ref", req.Reference,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if len(h.webhookSecret) == 0 || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
