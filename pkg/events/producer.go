package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KarolineKS/PetMatch-api/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Publisher emits visit events. Publishing is best-effort: a broker outage
// must never fail a booking.
type Publisher interface {
	Publish(ctx context.Context, event VisitEvent) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewPublisher returns a Kafka-backed publisher, or a no-op one when no
// brokers are configured (local development, tests).
func NewPublisher(brokers []string, topic string, log *logger.Logger) Publisher {
	if len(brokers) == 0 {
		log.Info("Kafka brokers not configured, visit events disabled")
		return noopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // key ordering per visit
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        false,
	}

	log.Info("Kafka visit-event publisher initialized",
		"brokers", brokers,
		"topic", topic,
	)
	return &kafkaPublisher{writer: writer, log: log}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event VisitEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal visit event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.VisitaID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish visit event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, VisitEvent) error { return nil }
func (noopPublisher) Close() error                              { return nil }
