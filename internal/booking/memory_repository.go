package booking

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepository keeps bookings for the lifetime of the process.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	order    []string
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bookings: make(map[string]*Booking),
		now:      time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, d Draft) (*Booking, error) {
	now := r.now().UTC()
	b := &Booking{
		ID:            NewID(),
		Name:          d.Name,
		Phone:         d.Phone,
		Email:         d.Email,
		Service:       d.Service,
		Date:          d.Date,
		Time:          d.Time,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Amount:        d.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if d.PaymentReference != "" {
		ref := d.PaymentReference
		b.PaymentReference = &ref
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings[b.ID] = b
	r.order = append(r.order, b.ID)
	return clone(b), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Booking, error) {
	return r.filter(func(*Booking) bool { return true }), nil
}

func (r *MemoryRepository) ListByPhone(_ context.Context, phone string) ([]Booking, error) {
	return r.filter(func(b *Booking) bool { return b.Phone == phone }), nil
}

func (r *MemoryRepository) FindByDateTime(_ context.Context, date, clock string, statuses []Status) ([]Booking, error) {
	return r.filter(func(b *Booking) bool {
		return b.Date == date && b.Time == clock && slices.Contains(statuses, b.Status)
	}), nil
}

func (r *MemoryRepository) FindByDate(_ context.Context, date string, statuses []Status) ([]Booking, error) {
	return r.filter(func(b *Booking) bool {
		return b.Date == date && slices.Contains(statuses, b.Status)
	}), nil
}

func (r *MemoryRepository) FindByPaymentReference(_ context.Context, ref string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		b := r.bookings[id]
		if b.PaymentReference != nil && *b.PaymentReference == ref {
			return clone(b), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Update(_ context.Context, id string, u Update) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}

	if u.Status != nil && u.Status.HoldsSlot() && !b.Status.HoldsSlot() && r.slotHeldByOther(b) {
		return nil, ErrSlotTaken
	}

	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.PaymentStatus != nil {
		b.PaymentStatus = *u.PaymentStatus
	}
	if u.PaymentReference != nil {
		ref := *u.PaymentReference
		b.PaymentReference = &ref
	}
	if u.Amount != nil {
		b.Amount = *u.Amount
	}
	b.UpdatedAt = r.now().UTC()
	return clone(b), nil
}

func (r *MemoryRepository) ConfirmPayment(_ context.Context, id string) (*Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if b.PaymentStatus == PaymentSuccess {
		return clone(b), false, nil
	}
	if b.Status == StatusCancelled {
		return nil, false, ErrInvalidTransition
	}
	if r.slotHeldByOther(b) {
		return nil, false, ErrSlotTaken
	}

	b.Status = StatusPaid
	b.PaymentStatus = PaymentSuccess
	b.UpdatedAt = r.now().UTC()
	return clone(b), true, nil
}

func (r *MemoryRepository) MarkPaymentFailed(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.PaymentStatus != PaymentSuccess {
		b.PaymentStatus = PaymentFailed
		b.UpdatedAt = r.now().UTC()
	}
	return clone(b), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.bookings, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

// slotHeldByOther must be called with r.mu held.
func (r *MemoryRepository) slotHeldByOther(b *Booking) bool {
	for _, other := range r.bookings {
		if other.ID != b.ID && other.Date == b.Date && other.Time == b.Time && other.Status.HoldsSlot() {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) filter(keep func(*Booking) bool) []Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Booking, 0)
	for _, id := range r.order {
		if b := r.bookings[id]; keep(b) {
			out = append(out, *clone(b))
		}
	}
	return out
}
