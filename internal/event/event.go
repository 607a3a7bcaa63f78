// Package event publishes order lifecycle events for downstream consumers.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
)

const (
	OrderCreated   = "order.created"
	OrderUpdated   = "order.updated"
	OrderCancelled = "order.cancelled"
)

type Event struct {
	EventID     string        `json:"event_id"`
	Type        string        `json:"type"`
	OrderNumber string        `json:"order_number"`
	CreatedAt   time.Time     `json:"created_at"`
	Order       *entity.Order `json:"order"`
}

func New(eventType string, order *entity.Order, now time.Time) Event {
	return Event{
		EventID:     uuid.NewString(),
		Type:        eventType,
		OrderNumber: order.OrderNumber,
		CreatedAt:   now.UTC(),
		Order:       order,
	}
}

// Publisher is satisfied by KafkaPublisher and Nop.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes evt keyed by its order number alone, so every event of one
// order lands on the same partition in order. The type travels as a header.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.OrderNumber),
		Value: value,
		Time:  evt.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.EventID)},
			{Key: "type", Value: []byte(evt.Type)},
		},
	})
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
