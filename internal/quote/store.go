// Package quote issues time-limited priced offers for installments.
package quote

import (
	"context"

	"securelife/internal/quote/models"
	id "securelife/pkg/domain"
)

// Store holds issued quotes until they expire. Implementations enforce the
// TTL themselves: Get never returns an expired quote.
type Store interface {
	// Save persists a quote until its ExpiresAt.
	Save(ctx context.Context, q *models.Quote) error
	// Get returns the quote, or a not-found error when it is unknown or
	// already expired.
	Get(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error)
	// Delete removes a quote. Used after a successful charge so a quote
	// can fund at most one submission.
	Delete(ctx context.Context, quoteID id.QuoteID) error
}
