package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ledgermodels "securelife/internal/ledger/models"
	"securelife/internal/payment/handler"
	"securelife/internal/platform/logger"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/testutil"
)

const testSecret = "whsec_test"

type stubPaymentService struct {
	tx         *ledgermodels.Transaction
	err        error
	confirmed  []string
	lastQuote  id.QuoteID
	lastPolicy id.PolicyID
	lastIndex  int
}

func (s *stubPaymentService) Charge(_ context.Context, policyID id.PolicyID, index int, quoteID id.QuoteID, _ string) (*ledgermodels.Transaction, error) {
	s.lastPolicy = policyID
	s.lastIndex = index
	s.lastQuote = quoteID
	return s.tx, s.err
}

func (s *stubPaymentService) Confirm(_ context.Context, gatewayRef string, _ ledgermodels.TransactionStatus) (*ledgermodels.Transaction, error) {
	s.confirmed = append(s.confirmed, gatewayRef)
	return s.tx, s.err
}

func newRouter(svc handler.Service) http.Handler {
	r := chi.NewRouter()
	h := handler.New(svc, testSecret, logger.New())
	h.Register(r)
	h.RegisterWebhook(r)
	return r
}

func pendingTx(policyID id.PolicyID) *ledgermodels.Transaction {
	return &ledgermodels.Transaction{
		ID:         id.TransactionID(uuid.New()),
		PolicyID:   policyID,
		Amount:     decimal.RequireFromString("5250.00"),
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:     ledgermodels.StatusPending,
		GatewayRef: "ch_1",
	}
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPay_Accepted(t *testing.T) {
	policyID := id.PolicyID(uuid.New())
	quoteID := uuid.NewString()
	svc := &stubPaymentService{tx: pendingTx(policyID)}

	req := testutil.NewJSONRequest(t, http.MethodPost,
		"/policy/"+policyID.String()+"/installments/4/pay",
		map[string]string{"quoteId": quoteID, "paymentMethodToken": "tok_visa"})
	rr := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rr, http.StatusAccepted)
	testutil.AssertJSONContains(t, rr, "status", "PENDING")
	testutil.AssertJSONContains(t, rr, "gatewayRef", "ch_1")
	require.Equal(t, policyID, svc.lastPolicy)
	require.Equal(t, 4, svc.lastIndex)
	require.Equal(t, quoteID, svc.lastQuote.String())
}

func TestPay_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"payment in progress", dErrors.New(dErrors.CodePaymentInProgress, "busy"), http.StatusConflict, "payment_in_progress"},
		{"stale installment", dErrors.New(dErrors.CodeStaleInstallment, "stale"), http.StatusConflict, "stale_installment"},
		{"stale quote", dErrors.New(dErrors.CodeStaleQuote, "expired"), http.StatusGone, "stale_quote"},
		{"unauthorized state", dErrors.New(dErrors.CodeUnauthorizedState, "withdrawn"), http.StatusConflict, "unauthorized_state"},
		{"gateway failure", dErrors.New(dErrors.CodePaymentGateway, "rejected"), http.StatusBadGateway, "payment_gateway_error"},
		{"unknown installment", dErrors.New(dErrors.CodeNotFound, "missing"), http.StatusNotFound, "not_found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPaymentService{err: tc.err}
			req := testutil.NewJSONRequest(t, http.MethodPost,
				"/policy/"+uuid.NewString()+"/installments/1/pay",
				map[string]string{"quoteId": uuid.NewString(), "paymentMethodToken": "tok_visa"})
			rr := testutil.DoRequest(newRouter(svc), req)

			testutil.AssertStatusAndError(t, rr, tc.status, tc.code)
		})
	}
}

func TestPay_InvalidQuoteID(t *testing.T) {
	req := testutil.NewJSONRequest(t, http.MethodPost,
		"/policy/"+uuid.NewString()+"/installments/1/pay",
		map[string]string{"quoteId": "nope", "paymentMethodToken": "tok_visa"})
	rr := testutil.DoRequest(newRouter(&stubPaymentService{}), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestWebhook_ValidSignature(t *testing.T) {
	policyID := id.PolicyID(uuid.New())
	tx := pendingTx(policyID)
	tx.Status = ledgermodels.StatusSucceeded
	svc := &stubPaymentService{tx: tx}

	body := `{"reference":"ch_1","status":"SUCCEEDED"}`
	req := testutil.NewRequestWithBody(t, http.MethodPost, "/payments/webhook", body)
	req.Header.Set(handler.SignatureHeader, sign(body))
	rr := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "SUCCEEDED")
	require.Equal(t, []string{"ch_1"}, svc.confirmed)
}

func TestWebhook_MissingSignature(t *testing.T) {
	svc := &stubPaymentService{}
	body := `{"reference":"ch_1","status":"SUCCEEDED"}`
	req := testutil.NewRequestWithBody(t, http.MethodPost, "/payments/webhook", body)
	rr := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	require.Empty(t, svc.confirmed)
}

func TestWebhook_TamperedBody(t *testing.T) {
	svc := &stubPaymentService{}
	body := `{"reference":"ch_1","status":"SUCCEEDED"}`
	req := testutil.NewRequestWithBody(t, http.MethodPost, "/payments/webhook",
		`{"reference":"ch_2","status":"SUCCEEDED"}`)
	req.Header.Set(handler.SignatureHeader, sign(body))
	rr := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	require.Empty(t, svc.confirmed)
}

func TestWebhook_NonFinalStatus(t *testing.T) {
	svc := &stubPaymentService{}
	body := `{"reference":"ch_1","status":"SETTLING"}`
	req := testutil.NewRequestWithBody(t, http.MethodPost, "/payments/webhook", body)
	req.Header.Set(handler.SignatureHeader, sign(body))
	rr := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestWebhook_UnknownReference(t *testing.T) {
	svc := &stubPaymentService{err: dErrors.New(dErrors.CodeNotFound, "no pending transaction")}
	body := `{"reference":"ch_unknown","status":"FAILED"}`
	req := testutil.NewRequestWithBody(t, http.MethodPost, "/payments/webhook", body)
	req.Header.Set(handler.SignatureHeader, sign(body))
	rr := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
