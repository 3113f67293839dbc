package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "securelife/pkg/domain"
	audit "securelife/pkg/platform/audit"
	"securelife/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())
	event := audit.Event{
		UserID: userID,
		Action: string(audit.EventChargeSubmitted),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventChargeSubmitted), events[0].Action)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	userID := id.UserID(uuid.New())
	event := audit.Event{
		UserID: userID,
		Action: string(audit.EventQuoteIssued),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// Wait for async processing
	time.Sleep(100 * time.Millisecond)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventQuoteIssued), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	userID := id.UserID(uuid.New())

	for range 10 {
		event := audit.Event{
			UserID: userID,
			Action: string(audit.EventChargeConfirmed),
		}
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	userID := id.UserID(uuid.New())

	// Fill the buffer with concurrent writes; some events drop, but the
	// publisher must keep working.
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := audit.Event{
				UserID: userID,
				Action: string(audit.EventChargeSubmitted),
			}
			_ = pub.Emit(context.Background(), event)
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestampAndCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())
	event := audit.Event{
		UserID: userID,
		Action: string(audit.EventChargeConfirmed),
		// Timestamp and Category not set
	}

	before := time.Now()
	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, !events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.True(t, !events[0].Timestamp.After(after), "timestamp should be <= after")
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())
	customTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	event := audit.Event{
		UserID:    userID,
		Action:    string(audit.EventChargeFailed),
		Timestamp: customTime,
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_MultipleEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())

	events := []audit.Event{
		{UserID: userID, Action: string(audit.EventQuoteIssued)},
		{UserID: userID, Action: string(audit.EventChargeSubmitted)},
		{UserID: userID, Action: string(audit.EventChargeConfirmed)},
	}

	for _, event := range events {
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	result, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, string(audit.EventQuoteIssued), result[0].Action)
	assert.Equal(t, string(audit.EventChargeSubmitted), result[1].Action)
	assert.Equal(t, string(audit.EventChargeConfirmed), result[2].Action)
}

func TestPublisher_ListRecent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	for range 5 {
		err := pub.Emit(context.Background(), audit.Event{
			UserID: id.UserID(uuid.New()),
			Action: string(audit.EventChargeSubmitted),
		})
		require.NoError(t, err)
	}

	recent, err := store.ListRecent(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}
