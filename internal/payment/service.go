package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"barbershop/internal/booking"
	"barbershop/internal/chapa"
	"barbershop/internal/logger"
	"barbershop/internal/metrics"
	"barbershop/internal/validation"
)

// Confirmation sources, used as metric labels.
const (
	SourceVerify  = "verify"
	SourceWebhook = "webhook"
	SourceReturn  = "return"
)

const presumedSuccessMessage = "Payment is being confirmed - please check your booking status later"

// Gateway is the subset of the payment provider used here.
type Gateway interface {
	Initialize(ctx context.Context, req chapa.InitializeRequest) (*chapa.InitializeResponse, error)
	Verify(ctx context.Context, txRef string) (*chapa.VerifyResponse, error)
}

type Config struct {
	AppURL              string
	Currency            string
	CountryCode         string
	TxRefPrefix         string
	FallbackEmailDomain string
	ShopName            string
}

type Service interface {
	// Initiate stores the Pending booking with a fresh tx_ref before asking
	// the gateway for a checkout URL.
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	// Verify re-checks the transaction with the gateway and confirms the booking.
	Verify(ctx context.Context, txRef string) (*booking.Booking, error)
	// HandleWebhook trusts the status reported by the gateway callback.
	HandleWebhook(ctx context.Context, txRef, status string) (*booking.Booking, error)
	// ReturnStatus is Verify for the browser return page: a gateway timeout is
	// reported as an unverified success and changes nothing.
	ReturnStatus(ctx context.Context, txRef string) (*ReturnStatus, error)
}

type service struct {
	bookings  booking.Service
	repo      booking.Repository
	gateway   Gateway
	notifiers []Notifier
	cfg       Config
	newTxRef  func(prefix string) string
}

func NewService(bookings booking.Service, repo booking.Repository, gateway Gateway, cfg Config, notifiers ...Notifier) Service {
	return &service{
		bookings:  bookings,
		repo:      repo,
		gateway:   gateway,
		notifiers: notifiers,
		cfg:       cfg,
		newTxRef:  NewTxRef,
	}
}

func (s *service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	resp, err := s.initiate(ctx, req)
	metrics.RecordPaymentInitiated(initiateOutcome(err))
	return resp, err
}

func (s *service) initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if errs := validation.Struct(req); len(errs) > 0 {
		return nil, &booking.ValidationError{Field: errs[0].Field, Message: errs[0].Message}
	}

	txRef := s.newTxRef(s.cfg.TxRefPrefix)

	var (
		b   *booking.Booking
		err error
	)
	if id := strings.TrimSpace(req.BookingID); id != "" {
		b, err = s.attach(ctx, id, req.Amount, txRef)
	} else {
		b, err = s.bookings.CreateForPayment(ctx, req.bookingRequest(), req.Amount, txRef)
	}
	if err != nil {
		return nil, err
	}

	c := normalizeCustomer(b.Name, b.Phone, b.Email, s.cfg.CountryCode, s.cfg.FallbackEmailDomain)
	appURL := strings.TrimRight(s.cfg.AppURL, "/")

	resp, err := s.gateway.Initialize(ctx, chapa.InitializeRequest{
		Amount:      b.Amount,
		Currency:    s.cfg.Currency,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		PhoneNumber: c.Phone,
		TxRef:       txRef,
		CallbackURL: appURL + "/api/payment/verify-booking",
		ReturnURL:   appURL + "/receipt?ref=" + url.QueryEscape(txRef),
		Customization: &chapa.Customization{
			Title:       s.cfg.ShopName,
			Description: describe(b.Service, b.Time),
		},
	})
	if err != nil {
		gerr := gatewayError(err, "Failed to initialize payment")
		logger.Error("payment initialization failed",
			"booking_id", b.ID,
			"tx_ref", txRef,
			"error", gerr.Error(),
		)
		return nil, gerr
	}

	logger.Info("payment initialized", "booking_id", b.ID, "tx_ref", txRef, "amount", b.Amount)

	return &InitiateResponse{
		BookingID:   b.ID,
		CheckoutURL: resp.Data.CheckoutURL,
		TxRef:       txRef,
	}, nil
}

// attach points an existing Pending booking at a new transaction. A booking
// whose current reference is still live keeps it; only a booking with no
// reference or a failed one gets the new txRef.
func (s *service) attach(ctx context.Context, id string, amount float64, txRef string) (*booking.Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != booking.StatusPending || current.PaymentStatus == booking.PaymentSuccess {
		return nil, ErrNotPayable
	}
	if current.Reference() != "" && current.PaymentStatus != booking.PaymentFailed {
		logger.Warn("payment already in flight", "booking_id", id, "tx_ref", current.Reference())
		return nil, ErrNotPayable
	}
	if err := s.bookings.EnsureSlotFree(ctx, current.Date, current.Time); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, booking.Update{
		PaymentReference: &txRef,
		Amount:           &amount,
	})
}

func (s *service) Verify(ctx context.Context, txRef string) (*booking.Booking, error) {
	return s.verify(ctx, txRef, SourceVerify)
}

func (s *service) verify(ctx context.Context, txRef, source string) (*booking.Booking, error) {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return nil, ErrMissingTxRef
	}

	result, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		gerr := gatewayError(err, "Failed to verify payment")
		logger.Warn("payment verification failed", "tx_ref", txRef, "source", source, "timeout", gerr.Timeout, "error", gerr.Error())
		outcome := "gateway_error"
		if gerr.Timeout {
			outcome = "timeout"
		}
		metrics.RecordPaymentConfirmation(source, outcome)
		return nil, gerr
	}
	if !result.Succeeded() {
		metrics.RecordPaymentConfirmation(source, "not_successful")
		logger.Info("payment not successful", "tx_ref", txRef, "source", source, "gateway_status", result.Data.Status)
		return nil, ErrPaymentFailed
	}

	b, err := s.lookup(ctx, txRef, source)
	if err != nil {
		return nil, err
	}
	return s.confirm(ctx, b, source)
}

func (s *service) HandleWebhook(ctx context.Context, txRef, status string) (*booking.Booking, error) {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return nil, ErrMissingTxRef
	}

	b, err := s.lookup(ctx, txRef, SourceWebhook)
	if err != nil {
		return nil, err
	}

	if status == chapa.StatusSuccess {
		return s.confirm(ctx, b, SourceWebhook)
	}

	updated, err := s.repo.MarkPaymentFailed(ctx, b.ID)
	if err != nil {
		metrics.RecordPaymentConfirmation(SourceWebhook, "error")
		return nil, fmt.Errorf("mark payment failed: %w", err)
	}

	if updated.PaymentStatus == booking.PaymentSuccess {
		metrics.RecordPaymentConfirmation(SourceWebhook, "ignored_failure")
		logger.Warn("failure reported for a confirmed payment", "booking_id", b.ID, "tx_ref", txRef, "status", status)
		return updated, nil
	}

	metrics.RecordPaymentConfirmation(SourceWebhook, "failed")
	logger.Info("payment marked failed", "booking_id", b.ID, "tx_ref", txRef, "status", status)
	s.notifyFailed(ctx, updated)
	return updated, nil
}

func (s *service) ReturnStatus(ctx context.Context, txRef string) (*ReturnStatus, error) {
	b, err := s.verify(ctx, txRef, SourceReturn)
	if err == nil {
		return &ReturnStatus{
			Status:   "success",
			Verified: true,
			Message:  "Payment verified successfully",
			Booking:  receiptFor(b, true),
		}, nil
	}

	var gerr *GatewayError
	if !errors.As(err, &gerr) || !gerr.Timeout {
		return nil, err
	}

	// The gateway only redirects the browser here after a charge, so a
	// timeout is reported as presumed success. Nothing is written.
	metrics.RecordPaymentConfirmation(SourceReturn, "presumed")
	logger.Warn("payment presumed successful after verification timeout", "tx_ref", strings.TrimSpace(txRef))

	out := &ReturnStatus{Status: "success", Verified: false, Message: presumedSuccessMessage}
	if pending, err := s.repo.FindByPaymentReference(ctx, strings.TrimSpace(txRef)); err == nil {
		out.Booking = receiptFor(pending, true)
	}
	return out, nil
}

func (s *service) lookup(ctx context.Context, txRef, source string) (*booking.Booking, error) {
	b, err := s.repo.FindByPaymentReference(ctx, txRef)
	if errors.Is(err, booking.ErrNotFound) {
		metrics.RecordPaymentConfirmation(source, "not_found")
		logger.Warn("no booking for payment reference", "tx_ref", txRef, "source", source)
		return nil, ErrBookingNotFound
	}
	if err != nil {
		metrics.RecordPaymentConfirmation(source, "error")
		return nil, fmt.Errorf("find booking by reference: %w", err)
	}
	return b, nil
}

// confirm applies the idempotent Paid transition. Only the call that
// actually changed state sends notifications.
func (s *service) confirm(ctx context.Context, b *booking.Booking, source string) (*booking.Booking, error) {
	confirmed, changed, err := s.repo.ConfirmPayment(ctx, b.ID)
	if err != nil {
		outcome := "error"
		if errors.Is(err, booking.ErrSlotTaken) {
			outcome = "slot_taken"
		}
		metrics.RecordPaymentConfirmation(source, outcome)
		logger.Error("payment confirmation rejected",
			"booking_id", b.ID,
			"tx_ref", b.Reference(),
			"source", source,
			"error", err.Error(),
		)
		return nil, err
	}

	if !changed {
		metrics.RecordPaymentConfirmation(source, "duplicate")
		logger.Debug("payment already confirmed", "booking_id", b.ID, "tx_ref", b.Reference(), "source", source)
		return confirmed, nil
	}

	metrics.RecordPaymentConfirmation(source, "confirmed")
	logger.Info("payment confirmed", "booking_id", b.ID, "tx_ref", b.Reference(), "source", source)
	s.notifyPaid(ctx, confirmed)
	return confirmed, nil
}

func initiateOutcome(err error) string {
	var verr *booking.ValidationError
	var gerr *GatewayError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr), errors.Is(err, booking.ErrOutOfHours):
		return "rejected"
	case errors.Is(err, booking.ErrSlotTaken):
		return "slot_taken"
	case errors.As(err, &gerr):
		return "gateway_error"
	default:
		return "error"
	}
}
