package config

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriter builds the writer for order events. Messages are keyed by
// order number, so the hash balancer keeps one order's events on one
// partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}
