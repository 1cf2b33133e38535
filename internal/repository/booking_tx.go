package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// BookingTx is the set of writes a booking needs, all bound to one
// database transaction.
type BookingTx interface {
	LockEvent(ctx context.Context, eventID string) (*model.Event, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	DecrementSeats(ctx context.Context, eventID string, n int) error
}

// BookingTxStore runs a function inside a transaction spanning the events
// and bookings tables.
type BookingTxStore struct {
	Events   *EventRepo
	Bookings *BookingRepo
}

// NewBookingTxStore returns a store over the two repositories.  Both must
// share the same *sql.DB.
func NewBookingTxStore(events *EventRepo, bookings *BookingRepo) *BookingTxStore {
	return &BookingTxStore{Events: events, Bookings: bookings}
}

// WithTx begins a transaction, calls fn, and commits when fn returns nil.
// Any error rolls everything back.
func (s *BookingTxStore) WithTx(ctx context.Context, fn func(tx BookingTx) error) error {
	tx, err := s.Bookings.DB().BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(sqlBookingTx{tx: tx, events: s.Events, bookings: s.Bookings}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type sqlBookingTx struct {
	tx       *sql.Tx
	events   *EventRepo
	bookings *BookingRepo
}

func (t sqlBookingTx) LockEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return t.events.GetByIDForUpdateTx(ctx, t.tx, eventID)
}

func (t sqlBookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.bookings.CreateTx(ctx, t.tx, b)
}

func (t sqlBookingTx) DecrementSeats(ctx context.Context, eventID string, n int) error {
	return t.events.DecrementAvailableTx(ctx, t.tx, eventID, n)
}
