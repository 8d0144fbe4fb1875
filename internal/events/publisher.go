// Package events publishes booking lifecycle events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"barbershop/internal/booking"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KeyBookingPaid   = "booking.paid"
	KeyPaymentFailed = "booking.payment_failed"
)

// BookingEvent is the message body for every booking routing key.
type BookingEvent struct {
	Event         string    `json:"event"`
	BookingID     string    `json:"booking_id"`
	TxRef         string    `json:"tx_ref"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	Service       string    `json:"service"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func newBookingEvent(key string, b *booking.Booking, now time.Time) BookingEvent {
	return BookingEvent{
		Event:         key,
		BookingID:     b.ID,
		TxRef:         b.Reference(),
		Name:          b.Name,
		Phone:         b.Phone,
		Email:         b.Email,
		Service:       b.Service,
		Date:          b.Date,
		Time:          b.Time,
		Amount:        b.Amount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		OccurredAt:    now.UTC(),
	}
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	now      func() time.Time
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange, now: time.Now}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         b,
	})
}

func (p *Publisher) Name() string { return "amqp" }

func (p *Publisher) BookingPaid(ctx context.Context, b *booking.Booking) error {
	return p.PublishJSON(ctx, KeyBookingPaid, newBookingEvent(KeyBookingPaid, b, p.now()))
}

func (p *Publisher) PaymentFailed(ctx context.Context, b *booking.Booking) error {
	return p.PublishJSON(ctx, KeyPaymentFailed, newBookingEvent(KeyPaymentFailed, b, p.now()))
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
