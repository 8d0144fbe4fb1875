package payment

import (
	"context"
	"errors"
	"net/http"

	"barbershop/internal/booking"
	"barbershop/internal/chapa"
)

var (
	ErrBookingNotFound = errors.New("booking not found for payment reference")
	ErrPaymentFailed   = errors.New("payment verification failed")
	ErrMissingTxRef    = errors.New("transaction reference is required")
	ErrNotPayable      = errors.New("booking cannot accept a payment")
)

// GatewayError wraps a failed call to the payment gateway. Message is the
// gateway's own message when it sent one.
type GatewayError struct {
	Message string
	Timeout bool
	Err     error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func gatewayError(err error, fallback string) *GatewayError {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr
	}

	out := &GatewayError{Message: fallback, Err: err}
	var cerr *chapa.Error
	if errors.As(err, &cerr) {
		out.Timeout = cerr.Timeout
		if cerr.Message != "" {
			out.Message = cerr.Message
		}
		return out
	}
	if errors.Is(err, context.DeadlineExceeded) {
		out.Timeout = true
	}
	return out
}

// HTTPError maps payment and booking errors to a status code and message.
func HTTPError(err error) (int, string) {
	var gerr *GatewayError
	switch {
	case errors.Is(err, ErrMissingTxRef):
		return http.StatusBadRequest, "Transaction reference is required"
	case errors.Is(err, ErrBookingNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusBadRequest, "Payment verification failed"
	case errors.Is(err, ErrNotPayable):
		return http.StatusConflict, "This booking is not awaiting payment"
	case errors.As(err, &gerr):
		return http.StatusInternalServerError, gerr.Message
	default:
		return booking.HTTPError(err)
	}
}
