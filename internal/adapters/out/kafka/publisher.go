// Package kafka publishes order status changes for downstream consumers (billing,
// analytics, restaurant dashboards).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"turbodelivery/internal/core/ports"

	"github.com/IBM/sarama"
)

const eventTypeHeader = "event-type"

var _ ports.OrderEventPublisher = (*OrderEventPublisher)(nil)

// OrderEventPublisher writes one message per status change to the topic, keyed by order id
// so all changes of one order land on the same partition in order.
type OrderEventPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewProducerConfig returns the producer settings the publisher relies on: synchronous
// acknowledgements from all in-sync replicas.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = 5 * time.Second
	config.Producer.Retry.Max = 3
	return config
}

func NewOrderEventPublisher(brokers []string, topic string, logger *slog.Logger) (*OrderEventPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewOrderEventPublisherWithProducer(producer, topic, logger), nil
}

func NewOrderEventPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *OrderEventPublisher {
	return &OrderEventPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "kafka_publisher"),
	}
}

func (p *OrderEventPublisher) PublishOrderStatusChanged(ctx context.Context, event ports.OrderStatusChanged) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte(eventTypeHeader), Value: []byte("order_status_changed")},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish status change of order %s: %w", event.OrderID, err)
	}

	p.logger.DebugContext(ctx, "order event published",
		"orderId", event.OrderID, "status", event.Status, "partition", partition, "offset", offset)
	return nil
}

func (p *OrderEventPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher stands in when no broker is configured and only logs the events.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) LogPublisher {
	return LogPublisher{logger: logger.With("component", "order_events")}
}

func (p LogPublisher) PublishOrderStatusChanged(ctx context.Context, event ports.OrderStatusChanged) error {
	p.logger.InfoContext(ctx, "order status changed",
		"orderId", event.OrderID, "orderNumber", event.OrderNumber, "status", event.Status)
	return nil
}
