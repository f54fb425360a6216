// Package rabbitmq fans realtime notifications out to every instance of the service.
//
// Each instance only knows its own websocket sessions. The Bus implements ports.Notifier by
// publishing every frame to a fanout exchange; each instance consumes the exchange through
// its own exclusive queue and hands the frame to its local hub. An instance therefore also
// receives the frames it published itself.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

var _ ports.Notifier = (*Bus)(nil)

// envelope is the message body on the exchange.
type envelope struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// publisher is the part of *amqp.Channel the bus publishes with.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Bus struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	pub      publisher
	exchange string
	local    ports.Notifier
	logger   *slog.Logger

	mu sync.Mutex
}

// Dial connects to the broker and declares the fanout exchange.
func Dial(url, exchange string, local ports.Notifier, logger *slog.Logger) (*Bus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	b := newBus(ch, exchange, local, logger)
	b.conn, b.ch = conn, ch
	return b, nil
}

func newBus(pub publisher, exchange string, local ports.Notifier, logger *slog.Logger) *Bus {
	return &Bus{
		pub:      pub,
		exchange: exchange,
		local:    local,
		logger:   logger.With("component", "rabbitmq_bus"),
	}
}

func (b *Bus) EmitToUser(ctx context.Context, userID kernel.UUID, event string, payload any) error {
	return b.EmitToRoom(ctx, ports.UserRoom(userID), event, payload)
}

func (b *Bus) EmitToRoom(ctx context.Context, room string, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope{Room: room, Event: event, Data: data})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pub.PublishWithContext(ctx,
		b.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		})
}

// Run consumes the exchange through an exclusive, server-named queue until ctx is done or
// the broker closes the channel.
func (b *Bus) Run(ctx context.Context) error {
	q, err := b.ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare instance queue: %w", err)
	}

	if err = b.ch.QueueBind(q.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind instance queue: %w", err)
	}

	deliveries, err := b.ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume instance queue: %w", err)
	}

	b.logger.InfoContext(ctx, "consuming notifications", "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq channel closed")
			}
			b.deliver(ctx, d.Body)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, body []byte) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		b.logger.WarnContext(ctx, "dropping malformed notification", "error", err)
		return
	}
	if err := b.local.EmitToRoom(ctx, env.Room, env.Event, env.Data); err != nil {
		b.logger.WarnContext(ctx, "failed to deliver notification", "room", env.Room, "event", env.Event, "error", err)
	}
}

func (b *Bus) Close() error {
	if b.ch != nil && !b.ch.IsClosed() {
		if err := b.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if b.conn != nil && !b.conn.IsClosed() {
		if err := b.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
