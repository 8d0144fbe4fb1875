package payment

import "barbershop/internal/booking"

// InitiateRequest starts a checkout either for a new booking (all booking
// fields set) or for an existing Pending booking (BookingID set).
type InitiateRequest struct {
	BookingID string  `json:"booking_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Email     string  `json:"email,omitempty"`
	Service   string  `json:"service,omitempty"`
	Date      string  `json:"date,omitempty" example:"2025-06-10"`
	Time      string  `json:"time,omitempty" example:"03:00"`
	Amount    float64 `json:"amount" validate:"gt=0" example:"300"`
}

func (r InitiateRequest) bookingRequest() booking.CreateBookingRequest {
	return booking.CreateBookingRequest{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Service: r.Service,
		Date:    r.Date,
		Time:    r.Time,
	}
}

type InitiateResponse struct {
	BookingID   string `json:"booking_id"`
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

type VerifyRequest struct {
	TxRef string `json:"tx_ref"`
}

// Receipt is the booking summary returned once a payment is confirmed.
type Receipt struct {
	BookingID string  `json:"booking_id"`
	Name      string  `json:"name"`
	Service   string  `json:"service"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Amount    float64 `json:"amount"`
	Phone     string  `json:"phone,omitempty"`
}

func receiptFor(b *booking.Booking, withPhone bool) *Receipt {
	r := &Receipt{
		BookingID: b.ID,
		Name:      b.Name,
		Service:   b.Service,
		Date:      b.Date,
		Time:      b.Time,
		Amount:    b.Amount,
	}
	if withPhone {
		r.Phone = b.Phone
	}
	return r
}

type VerifyResponse struct {
	Status  string   `json:"status" example:"success"`
	Message string   `json:"message"`
	Booking *Receipt `json:"booking,omitempty"`
}

type WebhookResponse struct {
	Status  string   `json:"status" example:"processed"`
	Booking *Receipt `json:"booking,omitempty"`
}

// ReturnStatus backs the browser return page. Verified is false when the
// gateway could not be reached in time and success is only presumed.
type ReturnStatus struct {
	Status   string   `json:"status" example:"success"`
	Verified bool     `json:"verified"`
	Message  string   `json:"message"`
	Booking  *Receipt `json:"booking,omitempty"`
}
