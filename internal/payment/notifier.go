package payment

import (
	"context"
	"time"

	"barbershop/internal/booking"
	"barbershop/internal/logger"
	"barbershop/internal/metrics"
)

// Notifier is told about reconciliation outcomes. Implementations must not
// block for long; errors are logged and never reach the payment caller.
type Notifier interface {
	Name() string
	BookingPaid(ctx context.Context, b *booking.Booking) error
	PaymentFailed(ctx context.Context, b *booking.Booking) error
}

const notifyTimeout = 5 * time.Second

func (s *service) notifyPaid(ctx context.Context, b *booking.Booking) {
	s.notify(ctx, b, "booking_paid", Notifier.BookingPaid)
}

func (s *service) notifyFailed(ctx context.Context, b *booking.Booking) {
	s.notify(ctx, b, "payment_failed", Notifier.PaymentFailed)
}

func (s *service) notify(ctx context.Context, b *booking.Booking, event string, send func(Notifier, context.Context, *booking.Booking) error) {
	if len(s.notifiers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	for _, n := range s.notifiers {
		err := send(n, ctx, b)
		if err == nil {
			metrics.RecordNotification(n.Name(), "ok")
			continue
		}
		metrics.RecordNotification(n.Name(), "error")
		logger.Warn("notification failed",
			"notifier", n.Name(),
			"event", event,
			"booking_id", b.ID,
			"tx_ref", b.Reference(),
			"error", err.Error(),
		)
	}
}
