package booking

import "context"

// Repository is the booking store. Lookups return ErrNotFound when nothing matches.
//
// ConfirmPayment and MarkPaymentFailed own the reconciliation invariants:
// confirming an already successful payment is a no-op reported with changed=false,
// a success is never downgraded to failed, and at most one booking per
// (date, time) may hold a slot-holding status (ErrSlotTaken otherwise).
type Repository interface {
	Create(ctx context.Context, d Draft) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context) ([]Booking, error)
	ListByPhone(ctx context.Context, phone string) ([]Booking, error)
	FindByDateTime(ctx context.Context, date, clock string, statuses []Status) ([]Booking, error)
	FindByDate(ctx context.Context, date string, statuses []Status) ([]Booking, error)
	FindByPaymentReference(ctx context.Context, ref string) (*Booking, error)
	Update(ctx context.Context, id string, u Update) (*Booking, error)
	ConfirmPayment(ctx context.Context, id string) (b *Booking, changed bool, err error)
	MarkPaymentFailed(ctx context.Context, id string) (*Booking, error)
	Delete(ctx context.Context, id string) error
}
