package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"securelife/internal/quote/models"
	"securelife/internal/quote/store/memory"
	id "securelife/pkg/domain"
	dErrors "securelife/pkg/domain-errors"
	"securelife/pkg/requestcontext"
)

func testQuote(issued time.Time) *models.Quote {
	return &models.Quote{
		ID:               id.QuoteID(uuid.New()),
		PolicyID:         id.PolicyID(uuid.New()),
		InstallmentIndex: 1,
		BaseAmount:       decimal.RequireFromString("5000"),
		TaxRate:          decimal.NewFromInt(5),
		TotalAmount:      decimal.RequireFromString("5250.00"),
		IssuedAt:         issued,
		ExpiresAt:        issued.Add(5 * time.Minute),
	}
}

func TestSaveAndGet(t *testing.T) {
	store := memory.NewStore()
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), issued)

	q := testQuote(issued)
	require.NoError(t, store.Save(ctx, q))

	got, err := store.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, q.ID, got.ID)
	require.True(t, got.TotalAmount.Equal(q.TotalAmount))

	// Returned copy must not alias the stored quote.
	got.InstallmentIndex = 99
	again, err := store.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, 1, again.InstallmentIndex)
}

func TestGetAtExpiryBoundary(t *testing.T) {
	store := memory.NewStore()
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q := testQuote(issued)
	require.NoError(t, store.Save(requestcontext.WithTime(context.Background(), issued), q))

	// One nanosecond before expiry the quote is still valid.
	almost := requestcontext.WithTime(context.Background(), q.ExpiresAt.Add(-time.Nanosecond))
	_, err := store.Get(almost, q.ID)
	require.NoError(t, err)

	// At expiry it is gone.
	at := requestcontext.WithTime(context.Background(), q.ExpiresAt)
	_, err = store.Get(at, q.ID)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDelete(t *testing.T) {
	store := memory.NewStore()
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), issued)

	q := testQuote(issued)
	require.NoError(t, store.Save(ctx, q))
	require.NoError(t, store.Delete(ctx, q.ID))

	_, err := store.Get(ctx, q.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// Deleting again is a no-op.
	require.NoError(t, store.Delete(ctx, q.ID))
}

func TestGetUnknown(t *testing.T) {
	store := memory.NewStore()
	_, err := store.Get(context.Background(), id.QuoteID(uuid.New()))
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
