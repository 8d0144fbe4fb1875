package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"barbershop/internal/booking"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

var fixedNow = time.Date(2025, 6, 10, 3, 5, 0, 0, time.UTC)

func newTestPublisher(ch *fakeChannel) *Publisher {
	return &Publisher{ch: ch, exchange: "barbershop.events", now: func() time.Time { return fixedNow }}
}

func paidBooking() *booking.Booking {
	ref := "BOOKING-1718000000000-abc123def"
	return &booking.Booking{
		ID:               "b1",
		Name:             "Abebe Kebede",
		Phone:            "0911223344",
		Service:          "Haircut",
		Date:             "2025-06-10",
		Time:             "03:00",
		Status:           booking.StatusPaid,
		PaymentStatus:    booking.PaymentSuccess,
		PaymentReference: &ref,
		Amount:           300,
	}
}

func TestPublisher_BookingPaid(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	require.NoError(t, p.BookingPaid(context.Background(), paidBooking()))
	require.Len(t, ch.sent, 1)

	sent := ch.sent[0]
	assert.Equal(t, "barbershop.events", sent.exchange)
	assert.Equal(t, KeyBookingPaid, sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)

	var event BookingEvent
	require.NoError(t, json.Unmarshal(sent.msg.Body, &event))
	assert.Equal(t, KeyBookingPaid, event.Event)
	assert.Equal(t, "b1", event.BookingID)
	assert.Equal(t, "BOOKING-1718000000000-abc123def", event.TxRef)
	assert.Equal(t, "Paid", event.Status)
	assert.Equal(t, "success", event.PaymentStatus)
	assert.True(t, fixedNow.Equal(event.OccurredAt))
}

func TestPublisher_PaymentFailed(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	b := paidBooking()
	b.Status = booking.StatusPending
	b.PaymentStatus = booking.PaymentFailed

	require.NoError(t, p.PaymentFailed(context.Background(), b))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, KeyPaymentFailed, ch.sent[0].key)

	var event BookingEvent
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &event))
	assert.Equal(t, "failed", event.PaymentStatus)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newTestPublisher(ch)

	err := p.BookingPaid(context.Background(), paidBooking())
	assert.EqualError(t, err, "channel closed")
}

func TestPublisher_PublishJSONRejectsUnencodable(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	err := p.PublishJSON(context.Background(), "x", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, ch.sent)
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.Equal(t, "amqp", p.Name())
}
