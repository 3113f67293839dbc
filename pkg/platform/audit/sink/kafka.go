// Package sink provides durable audit stores backed by external pipelines.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "securelife/pkg/platform/audit"
)

// KafkaSink publishes audit events to a Kafka topic. Records are keyed by
// policy ID so all events for one policy land on the same partition in order.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects a producer to the given brokers and topic.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sink: empty topic")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(3),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka sink: connect: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

type eventRecord struct {
	Category      string    `json:"category"`
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"userId,omitempty"`
	Action        string    `json:"action"`
	PolicyID      string    `json:"policyId,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	QuoteID       string    `json:"quoteId,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	RequestID     string    `json:"requestId,omitempty"`
	IP            string    `json:"ip,omitempty"`
	Device        string    `json:"device,omitempty"`
}

// Append produces the event synchronously. Callers that must not block wrap
// this sink in the async publisher.
func (s *KafkaSink) Append(ctx context.Context, event audit.Event) error {
	rec := eventRecord{
		Category:      string(event.Category),
		Timestamp:     event.Timestamp,
		Action:        event.Action,
		PolicyID:      event.PolicyID,
		TransactionID: event.TransactionID,
		QuoteID:       event.QuoteID,
		Amount:        event.Amount,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
		IP:            event.IP,
		Device:        event.Device,
	}
	if !event.UserID.IsZero() {
		rec.UserID = event.UserID.String()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kafka sink: marshal event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.PolicyID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka sink: produce: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the producer.
func (s *KafkaSink) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Flush(ctx)
	s.client.Close()
}
