// Package events publishes booking lifecycle messages to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys.
const (
	TopicBookingCreated = "booking.created"
	TopicBookingUpdated = "booking.updated"
)

// BookingMessage is published after a booking is created or moved.
type BookingMessage struct {
	MessageID  string    `json:"messageId"`
	BookingID  int       `json:"bookingId"`
	UserID     int       `json:"userId"`
	RoomID     int       `json:"roomId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewBookingMessage stamps a message with a fresh id and the current time.
func NewBookingMessage(bookingID, userID, roomID int) BookingMessage {
	return BookingMessage{
		MessageID:  uuid.NewString(),
		BookingID:  bookingID,
		UserID:     userID,
		RoomID:     roomID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends a JSON-encodable message under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, message any) error
}

// Discard is a Publisher that drops every message.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, string, any) error { return nil }

// channel is the subset of *amqp.Channel the broker uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker publishes to a durable topic exchange.
type Broker struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	logger   *slog.Logger
}

// NewBroker dials url, opens a channel and declares exchange as a durable
// topic exchange.
func NewBroker(url, exchange string, logger *slog.Logger) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Broker{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// Publish JSON-encodes message and publishes it as a persistent message.
func (b *Broker) Publish(ctx context.Context, key string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if m, ok := message.(BookingMessage); ok {
		msg.MessageId = m.MessageID
	}

	if err := b.channel.PublishWithContext(ctx, b.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	b.logger.Debug("published message", "exchange", b.exchange, "key", key)
	return nil
}

// Close releases the channel and the connection.
func (b *Broker) Close() error {
	if err := b.channel.Close(); err != nil {
		return err
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
