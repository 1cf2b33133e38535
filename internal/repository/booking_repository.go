package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// BookingRepo provides persistence for bookings.  A booking row is
// written once inside the checkout transaction and afterwards only
// updated by check-in.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB.  The booking writer uses it to begin
// the transaction that spans the event lock, the insert and the seat
// decrement.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts b within the scope of an existing transaction.  An
// empty ID is filled with a new UUID.  The caller must commit or roll
// back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	seats, err := json.Marshal(b.SeatNumbers)
	if err != nil {
		return err
	}
	var details any
	if len(b.PaymentDetails) > 0 {
		details = []byte(b.PaymentDetails)
	}
	const q = `INSERT INTO bookings (id, user_id, event_id, attendee_name, attendee_email, attendee_phone,
	           seat_numbers, ticket_count, payment_id, order_id, signature, payment_method, payment_details,
	           payment_status, amount, ticket_price, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q,
		b.ID, b.UserID, b.EventID, b.Attendee.Name, b.Attendee.Email, b.Attendee.Phone,
		seats, b.TicketCount, b.PaymentID, b.OrderID, b.Signature, b.PaymentMethod, details,
		string(b.PaymentStatus), b.Amount, b.TicketPrice, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

const bookingDetailSelect = `SELECT b.id, b.user_id, b.event_id, b.attendee_name, b.attendee_email, b.attendee_phone,
	b.seat_numbers, b.ticket_count, b.payment_id, b.order_id, b.signature, b.payment_method, b.payment_details,
	b.payment_status, b.amount, b.ticket_price, b.checked_in, b.checked_in_at, b.checked_in_by,
	b.created_at, b.updated_at,
	e.title, e.event_date, e.event_time, e.venue, e.address
	FROM bookings b
	JOIN events e ON e.id = b.event_id`

func scanBookingDetail(row rowScanner) (*model.BookingDetail, error) {
	var (
		d           model.BookingDetail
		seats       []byte
		details     []byte
		status      string
		checkedAt   sql.NullTime
		checkedBy   sql.NullString
		paymentMeth sql.NullString
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.EventID, &d.Attendee.Name, &d.Attendee.Email, &d.Attendee.Phone,
		&seats, &d.TicketCount, &d.PaymentID, &d.OrderID, &d.Signature, &paymentMeth, &details,
		&status, &d.Amount, &d.TicketPrice, &d.CheckedIn, &checkedAt, &checkedBy,
		&d.CreatedAt, &d.UpdatedAt,
		&d.EventTitle, &d.EventDate, &d.EventTime, &d.Venue, &d.Address,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(seats) > 0 {
		if err := json.Unmarshal(seats, &d.SeatNumbers); err != nil {
			return nil, err
		}
	}
	if len(details) > 0 {
		d.PaymentDetails = json.RawMessage(details)
	}
	d.PaymentStatus = model.PaymentStatus(status)
	d.PaymentMethod = paymentMeth.String
	if checkedAt.Valid {
		t := checkedAt.Time.UTC()
		d.CheckedInAt = &t
	}
	if checkedBy.Valid {
		s := checkedBy.String
		d.CheckedInBy = &s
	}
	return &d, nil
}

// GetByID returns a booking joined with its event.  It returns
// ErrBookingNotFound when no row matches.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.BookingDetail, error) {
	return scanBookingDetail(r.db.QueryRowContext(ctx, bookingDetailSelect+` WHERE b.id = ?`, id))
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.BookingDetail, error) {
	return r.list(ctx, bookingDetailSelect+` WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
}

// ListByEvent returns every booking for an event, newest first.  Used by
// the admin dashboard.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID string) ([]model.BookingDetail, error) {
	return r.list(ctx, bookingDetailSelect+` WHERE b.event_id = ? ORDER BY b.created_at DESC`, eventID)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingDetail{}
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// MarkCheckedIn flips checked_in for a booking that has not been checked
// in yet.  A second call returns ErrAlreadyCheckedIn and leaves the first
// check-in's time and operator in place; an unknown id returns
// ErrBookingNotFound.
func (r *BookingRepo) MarkCheckedIn(ctx context.Context, id, operator string, at time.Time) error {
	const q = `UPDATE bookings SET checked_in = 1, checked_in_at = ?, checked_in_by = ?, updated_at = ?
	           WHERE id = ? AND checked_in = 0`
	res, err := r.db.ExecContext(ctx, q, at, operator, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var checked bool
	err = r.db.QueryRowContext(ctx, `SELECT checked_in FROM bookings WHERE id = ?`, id).Scan(&checked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyCheckedIn
}
