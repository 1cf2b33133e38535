package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/payment"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/store"
)

// WriteInput is a verified payment ready to become a booking.
type WriteInput struct {
	Order     store.PendingOrder
	PaymentID string
	OrderID   string
	Signature string
	Details   *payment.PaymentDetails
}

// BookingWriter persists verified purchases.  The event row is locked,
// the booking inserted and the seat counter decremented in a single
// transaction, so a booking never exists without its inventory change.
// Retrying with the same payment id writes a second booking; callers
// guard against double submission.
type BookingWriter struct {
	tx  TxRunner
	clk clock.Clock
}

// NewBookingWriter returns a writer running in tx.
func NewBookingWriter(tx TxRunner, clk clock.Clock) *BookingWriter {
	return &BookingWriter{tx: tx, clk: clk}
}

// Write stores the booking and returns it together with the event it was
// booked for.
func (w *BookingWriter) Write(ctx context.Context, in WriteInput) (*model.Booking, *model.Event, error) {
	seats := in.Order.Seats
	if len(seats) == 0 {
		return nil, nil, ErrInsufficientInventory
	}
	now := w.clk.Now()

	var (
		booking *model.Booking
		event   *model.Event
	)
	err := w.tx.WithTx(ctx, func(tx repository.BookingTx) error {
		ev, err := tx.LockEvent(ctx, in.Order.EventID)
		if err != nil {
			return err
		}
		if ev.AvailableSeats < len(seats) {
			return ErrInsufficientInventory
		}

		b := &model.Booking{
			UserID:        in.Order.UserID,
			EventID:       ev.ID,
			Attendee:      in.Order.Attendee,
			SeatNumbers:   append([]string(nil), seats...),
			TicketCount:   len(seats),
			PaymentID:     in.PaymentID,
			OrderID:       in.OrderID,
			Signature:     in.Signature,
			PaymentStatus: model.PaymentCompleted,
			TicketPrice:   in.Order.TicketPrice,
			Amount:        int64(len(seats)) * in.Order.TicketPrice,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if in.Details != nil {
			b.PaymentMethod = in.Details.Method
			raw, err := json.Marshal(in.Details)
			if err != nil {
				return err
			}
			b.PaymentDetails = raw
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		if err := tx.DecrementSeats(ctx, ev.ID, len(seats)); err != nil {
			if errors.Is(err, repository.ErrInsufficientSeats) {
				return ErrInsufficientInventory
			}
			return err
		}
		ev.AvailableSeats -= len(seats)
		booking, event = b, ev
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return booking, event, nil
}
