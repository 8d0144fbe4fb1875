package booking

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrOutOfHours        = errors.New("booking time is outside operating hours")
	ErrSlotTaken         = errors.New("time slot is already booked")
	ErrInvalidTransition = errors.New("booking status transition not allowed")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// OutOfHoursError carries the operating window for the user-facing message.
type OutOfHoursError struct {
	Window string
}

func (e *OutOfHoursError) Error() string {
	return "Bookings are only available from " + e.Window
}

func (e *OutOfHoursError) Is(target error) bool {
	return target == ErrOutOfHours
}

// HTTPError maps booking errors to a status code and a message a customer can act on.
func HTTPError(err error) (int, string) {
	var verr *ValidationError
	var oerr *OutOfHoursError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.As(err, &oerr):
		return http.StatusBadRequest, oerr.Error()
	case errors.Is(err, ErrOutOfHours):
		return http.StatusBadRequest, "Booking time is outside operating hours"
	case errors.Is(err, ErrSlotTaken):
		return http.StatusBadRequest, "This time slot is already booked. Please choose another time."
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict, "Booking status cannot be changed to the requested value"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
