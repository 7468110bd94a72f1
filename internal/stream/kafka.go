// Package stream publishes intake decision events to Kafka so downstream
// consumers (trading core, risk, analytics) can react without polling the
// admin backend.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/marketdesk/admind/internal/domain"
)

// DefaultTopic carries every approve/reject decision, keyed by Polymarket ID
// so all decisions for one market land in the same partition, in order.
const DefaultTopic = "intake.decisions"

// decisionEvent is the wire envelope around a decision.
type decisionEvent struct {
	domain.IntakeDecision
	Version     int   `json:"version"`
	EmittedAtMs int64 `json:"emittedAtMs"`
}

// KafkaPublisher implements domain.DecisionPublisher on a kafka-go Writer.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishDecision writes one decision event.
func (p *KafkaPublisher) PublishDecision(ctx context.Context, d domain.IntakeDecision) error {
	e := decisionEvent{
		IntakeDecision: d,
		Version:        1,
		EmittedAtMs:    time.Now().UnixMilli(),
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("stream: marshal decision %s: %w", d.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(d.PolymarketID),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("stream: publish decision %s: %w", d.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ domain.DecisionPublisher = (*KafkaPublisher)(nil)
