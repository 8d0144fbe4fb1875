package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const bookingColumns = `booking_id, name, phone, email, service, booking_date, booking_time, status, payment_status, payment_reference, amount, created_at, updated_at`

// slotConstraint is the partial unique index over (booking_date, booking_time)
// restricted to slot-holding statuses.
const slotConstraint = "bookings_confirmed_slot_uniq"

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d Draft) (*Booking, error) {
	query := `
		INSERT INTO bookings (booking_id, name, phone, email, service, booking_date, booking_time, status, payment_status, payment_reference, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + bookingColumns

	var ref *string
	if d.PaymentReference != "" {
		ref = &d.PaymentReference
	}

	var b Booking
	err := r.db.GetContext(ctx, &b, query,
		NewID(), d.Name, d.Phone, d.Email, d.Service, d.Date, d.Time,
		StatusPending, PaymentPending, ref, d.Amount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	return &b, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1`, id)
}

func (r *PostgresRepository) FindByPaymentReference(ctx context.Context, ref string) (*Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_reference = $1`, ref)
}

func (r *PostgresRepository) List(ctx context.Context) ([]Booking, error) {
	return r.selectMany(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at`)
}

func (r *PostgresRepository) ListByPhone(ctx context.Context, phone string) ([]Booking, error) {
	return r.selectMany(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE phone = $1 ORDER BY created_at`, phone)
}

func (r *PostgresRepository) FindByDateTime(ctx context.Context, date, clock string, statuses []Status) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_date = $1 AND booking_time = $2 AND status = ANY($3)
	`
	return r.selectMany(ctx, query, date, clock, pq.Array(statusStrings(statuses)))
}

func (r *PostgresRepository) FindByDate(ctx context.Context, date string, statuses []Status) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_date = $1 AND status = ANY($2)
		ORDER BY booking_time
	`
	return r.selectMany(ctx, query, date, pq.Array(statusStrings(statuses)))
}

func (r *PostgresRepository) Update(ctx context.Context, id string, u Update) (*Booking, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.PaymentStatus != nil {
		add("payment_status", *u.PaymentStatus)
	}
	if u.PaymentReference != nil {
		add("payment_reference", *u.PaymentReference)
	}
	if u.Amount != nil {
		add("amount", *u.Amount)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE bookings SET %s WHERE booking_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), bookingColumns)

	var b Booking
	err := r.db.GetContext(ctx, &b, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *PostgresRepository) ConfirmPayment(ctx context.Context, id string) (*Booking, bool, error) {
	query := `
		UPDATE bookings
		SET status = 'Paid', payment_status = 'success', updated_at = NOW()
		WHERE booking_id = $1 AND payment_status <> 'success' AND status <> 'Cancelled'
		RETURNING ` + bookingColumns

	var b Booking
	err := r.db.GetContext(ctx, &b, query, id)
	if err == nil {
		return &b, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, translate(err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current.PaymentStatus == PaymentSuccess {
		return current, false, nil
	}
	return nil, false, ErrInvalidTransition
}

func (r *PostgresRepository) MarkPaymentFailed(ctx context.Context, id string) (*Booking, error) {
	query := `
		UPDATE bookings
		SET payment_status = 'failed', updated_at = NOW()
		WHERE booking_id = $1 AND payment_status <> 'success'
		RETURNING ` + bookingColumns

	var b Booking
	err := r.db.GetContext(ctx, &b, query, id)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, translate(err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...interface{}) (*Booking, error) {
	var b Booking
	if err := r.db.GetContext(ctx, &b, query, args...); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...interface{}) ([]Booking, error) {
	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, err
	}
	return bookings, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == slotConstraint {
		return ErrSlotTaken
	}
	return err
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
