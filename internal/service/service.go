// Package service holds the server side of checkout, booking and
// check-in.  Services depend on small interfaces so they can be driven by
// the MySQL repositories in production and by fakes in tests.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/payment"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/store"
)

var (
	// ErrEventNotFound is a booking precondition failure: the event is gone.
	ErrEventNotFound = repository.ErrEventNotFound
	// ErrBookingNotFound is returned for unknown booking ids.
	ErrBookingNotFound = repository.ErrBookingNotFound
	// ErrAlreadyCheckedIn is returned by a second check-in.
	ErrAlreadyCheckedIn = repository.ErrAlreadyCheckedIn
	// ErrForbidden is returned when a customer asks for someone else's
	// booking.
	ErrForbidden = repository.ErrForbidden
	// ErrInsufficientInventory means fewer seats are left than requested.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrOrderNotFound means the order context expired or never existed.
	ErrOrderNotFound = errors.New("order not found or expired")
	// ErrPaymentMismatch means the gateway's payment does not belong to
	// the order being completed.
	ErrPaymentMismatch = errors.New("payment does not match order")
	// ErrInvalidTicket is returned when scanned QR content is not a ticket.
	ErrInvalidTicket = errors.New("invalid ticket")
)

// EventReader loads events.
type EventReader interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, q repository.EventQuery) ([]model.Event, int64, error)
}

// BookingReader loads bookings and records check-ins.
type BookingReader interface {
	GetByID(ctx context.Context, id string) (*model.BookingDetail, error)
	ListByUser(ctx context.Context, userID string) ([]model.BookingDetail, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.BookingDetail, error)
	MarkCheckedIn(ctx context.Context, id, operator string, at time.Time) error
}

// TxRunner runs booking writes in one transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx repository.BookingTx) error) error
}

// OrderGateway opens payment orders with the gateway.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req payment.OrderRequest) (payment.Order, error)
}

// PaymentVerifier authenticates a gateway callback.
type PaymentVerifier interface {
	Verify(ctx context.Context, orderID, paymentID, signature string) (payment.Verification, error)
}

// OrderStore keeps the order context between creation and verification.
type OrderStore interface {
	Put(ctx context.Context, o store.PendingOrder) error
	Get(ctx context.Context, orderID string) (store.PendingOrder, error)
	Delete(ctx context.Context, orderID string) error
}

// Publisher hands domain events to the notification pipeline.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishCheckInConfirmed(ctx context.Context, ev queue.CheckInConfirmedEvent) error
}
