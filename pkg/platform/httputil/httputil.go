// Package httputil centralizes JSON response writing so every handler
// produces the same error envelope.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "securelife/pkg/domain-errors"
)

// statusByCode maps domain error codes to HTTP statuses.
//
// Conflict-family codes (unauthorized_state, payment_in_progress,
// stale_installment) are 409: the request was well-formed but lost a race
// with the current state; the caller recovers by re-fetching. stale_quote is
// 410 because the quoted resource existed and has expired.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeInvariantViolation: http.StatusUnprocessableEntity,
	dErrors.CodeInvalidSchedule:    http.StatusUnprocessableEntity,
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeUnauthorized:       http.StatusUnauthorized,
	dErrors.CodeForbidden:          http.StatusForbidden,
	dErrors.CodeUnauthorizedState:  http.StatusConflict,
	dErrors.CodePaymentInProgress:  http.StatusConflict,
	dErrors.CodeStaleInstallment:   http.StatusConflict,
	dErrors.CodeStaleQuote:         http.StatusGone,
	dErrors.CodePaymentGateway:     http.StatusBadGateway,
	dErrors.CodeInternal:           http.StatusInternalServerError,
}

// StatusForCode returns the HTTP status for a domain error code.
func StatusForCode(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError translates a domain error into the standard JSON error envelope.
// Internal errors omit the description so details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if msg := dErrors.MessageOf(err); msg != "" {
		body["error_description"] = msg
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusForCode(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
