package booking

import (
	"strings"
	"time"

	"barbershop/internal/schedule"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// SlotHoldingStatuses are the statuses that occupy a (date, time) slot.
// Pending bookings never hold a slot.
var SlotHoldingStatuses = []Status{StatusPaid, StatusCompleted}

func (s Status) HoldsSlot() bool {
	return s == StatusPaid || s == StatusCompleted
}

type Booking struct {
	ID               string        `db:"booking_id" json:"booking_id"`
	Name             string        `db:"name" json:"name"`
	Phone            string        `db:"phone" json:"phone"`
	Email            string        `db:"email" json:"email,omitempty"`
	Service          string        `db:"service" json:"service"`
	Date             string        `db:"booking_date" json:"date"`
	Time             string        `db:"booking_time" json:"time"`
	Status           Status        `db:"status" json:"status"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentReference *string       `db:"payment_reference" json:"payment_reference,omitempty"`
	Amount           float64       `db:"amount" json:"amount"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// Reference returns the payment reference or "" when none has been assigned.
func (b *Booking) Reference() string {
	if b.PaymentReference == nil {
		return ""
	}
	return *b.PaymentReference
}

// Draft is a validated booking that has not been stored yet.
type Draft struct {
	Name             string
	Phone            string
	Email            string
	Service          string
	Date             string
	Time             string
	Amount           float64
	PaymentReference string
}

// Update carries a partial update; nil fields are left unchanged.
type Update struct {
	Status           *Status
	PaymentStatus    *PaymentStatus
	PaymentReference *string
	Amount           *float64
}

type CreateBookingRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Service string `json:"service" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02" example:"2025-06-10"`
	Time    string `json:"time" validate:"required" example:"03:00"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=Completed Cancelled" example:"Completed"`
}

// Availability is a snapshot of free slots for a date. Stale is set when the
// store could not be queried and the full slot set was returned unfiltered.
type Availability struct {
	Date  string          `json:"date" example:"2025-06-10"`
	Slots []schedule.Slot `json:"slots"`
	Stale bool            `json:"stale"`
}

// NewID returns an opaque short booking identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func clone(b *Booking) *Booking {
	c := *b
	if b.PaymentReference != nil {
		ref := *b.PaymentReference
		c.PaymentReference = &ref
	}
	return &c
}
