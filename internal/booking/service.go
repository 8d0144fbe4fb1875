package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barbershop/internal/logger"
	"barbershop/internal/metrics"
	"barbershop/internal/schedule"
	"barbershop/internal/validation"
)

const (
	IntakeDirect  = "direct"
	IntakePayment = "payment"
)

type Service interface {
	// Create runs intake and stores a Pending booking with amount 0.
	Create(ctx context.Context, req CreateBookingRequest) (*Booking, error)
	// CreateForPayment runs the same intake checks and stores a Pending booking
	// carrying the amount and payment reference.
	CreateForPayment(ctx context.Context, req CreateBookingRequest, amount float64, paymentRef string) (*Booking, error)
	// EnsureSlotFree fails with ErrSlotTaken when a Paid or Completed booking holds the slot.
	EnsureSlotFree(ctx context.Context, date, clock string) error
	AvailableSlots(ctx context.Context, date string) (*Availability, error)
	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListBookings(ctx context.Context, phone string) ([]Booking, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	schedule schedule.Config
}

func NewService(repo Repository, sched schedule.Config) Service {
	return &service{
		repo:     repo,
		schedule: sched,
	}
}

func (s *service) Create(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	return s.intake(ctx, req, 0, "", IntakeDirect)
}

func (s *service) CreateForPayment(ctx context.Context, req CreateBookingRequest, amount float64, paymentRef string) (*Booking, error) {
	return s.intake(ctx, req, amount, paymentRef, IntakePayment)
}

func (s *service) intake(ctx context.Context, req CreateBookingRequest, amount float64, paymentRef, path string) (*Booking, error) {
	draft, err := s.validate(ctx, req)
	if err != nil {
		metrics.RecordBookingRejected(rejectionReason(err))
		return nil, err
	}
	draft.Amount = amount
	draft.PaymentReference = paymentRef

	b, err := s.repo.Create(ctx, *draft)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.RecordBookingCreated(path)
	logger.Info("booking created",
		"booking_id", b.ID,
		"date", b.Date,
		"time", b.Time,
		"intake", path,
	)
	return b, nil
}

// validate applies the intake checks in order: required fields, operating
// window, then slot availability. The returned draft has a normalized time.
func (s *service) validate(ctx context.Context, req CreateBookingRequest) (*Draft, error) {
	req = trimRequest(req)

	if errs := validation.Struct(req); len(errs) > 0 {
		return nil, &ValidationError{Field: errs[0].Field, Message: errs[0].Message}
	}

	clock, err := schedule.Normalize(req.Time)
	if err != nil {
		return nil, &ValidationError{Field: "time", Message: "time must be in HH:MM format"}
	}

	if within, _ := s.schedule.Within(clock); !within {
		return nil, &OutOfHoursError{Window: s.schedule.WindowLabel()}
	}

	if err := s.EnsureSlotFree(ctx, req.Date, clock); err != nil {
		return nil, err
	}

	return &Draft{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Service: req.Service,
		Date:    req.Date,
		Time:    clock,
	}, nil
}

func (s *service) EnsureSlotFree(ctx context.Context, date, clock string) error {
	held, err := s.repo.FindByDateTime(ctx, date, clock, SlotHoldingStatuses)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if len(held) > 0 {
		return ErrSlotTaken
	}
	return nil
}

// AvailableSlots subtracts slot-holding bookings from the day's slots. When the
// store cannot be read it fails open: the full slot set is returned with Stale set.
func (s *service) AvailableSlots(ctx context.Context, date string) (*Availability, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, &ValidationError{Field: "date", Message: "date must match the format 2006-01-02"}
	}

	all := s.schedule.Slots()

	held, err := s.repo.FindByDate(ctx, date, SlotHoldingStatuses)
	if err != nil {
		metrics.RecordAvailabilityFailOpen()
		logger.Warn("availability served unfiltered", "date", date, "error", err.Error())
		return &Availability{Date: date, Slots: all, Stale: true}, nil
	}

	taken := make(map[string]struct{}, len(held))
	for _, b := range held {
		taken[b.Time] = struct{}{}
	}

	free := make([]schedule.Slot, 0, len(all))
	for _, slot := range all {
		if _, ok := taken[slot.Time24]; !ok {
			free = append(free, slot)
		}
	}

	return &Availability{Date: date, Slots: free}, nil
}

func (s *service) GetBooking(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListBookings(ctx context.Context, phone string) ([]Booking, error) {
	if phone != "" {
		return s.repo.ListByPhone(ctx, phone)
	}
	return s.repo.List(ctx)
}

// UpdateStatus applies an administrative transition. Completed is only
// reachable from Paid; Cancelled from any state other than Cancelled.
func (s *service) UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusCompleted:
		if current.Status == StatusCompleted {
			return current, nil
		}
		if current.Status != StatusPaid {
			return nil, ErrInvalidTransition
		}
	case StatusCancelled:
		if current.Status == StatusCancelled {
			return current, nil
		}
	default:
		return nil, ErrInvalidTransition
	}

	b, err := s.repo.Update(ctx, id, Update{Status: &status})
	if err != nil {
		return nil, err
	}

	logger.Info("booking status updated", "booking_id", id, "from", current.Status, "to", status)
	return b, nil
}

func (s *service) DeleteBooking(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func trimRequest(req CreateBookingRequest) CreateBookingRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.Service = strings.TrimSpace(req.Service)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	return req
}

func rejectionReason(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrOutOfHours):
		return "out_of_hours"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	default:
		return "error"
	}
}
