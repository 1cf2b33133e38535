package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/event-ticketing/internal/checkout"
	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/payment"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/seating"
	"github.com/iliyamo/event-ticketing/internal/store"
)

// CheckoutService opens gateway orders and turns verified payments into
// bookings.
type CheckoutService struct {
	events    EventReader
	gateway   OrderGateway
	verifier  PaymentVerifier
	orders    OrderStore
	writer    *BookingWriter
	publisher Publisher
	clk       clock.Clock
	log       *slog.Logger

	KeyID    string
	Platform string
	MaxSeats int
}

// CheckoutDeps groups the collaborators of a CheckoutService.
type CheckoutDeps struct {
	Events    EventReader
	Gateway   OrderGateway
	Verifier  PaymentVerifier
	Orders    OrderStore
	Writer    *BookingWriter
	Publisher Publisher
	Clock     clock.Clock
	Log       *slog.Logger
	KeyID     string
}

// NewCheckoutService wires a CheckoutService.
func NewCheckoutService(d CheckoutDeps) *CheckoutService {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &CheckoutService{
		events:    d.Events,
		gateway:   d.Gateway,
		verifier:  d.Verifier,
		orders:    d.Orders,
		writer:    d.Writer,
		publisher: d.Publisher,
		clk:       clk,
		log:       log,
		KeyID:     d.KeyID,
		Platform:  "web",
		MaxSeats:  seating.DefaultMaxSelection,
	}
}

// CreateOrderInput is a buyer's request to pay for seats.
type CreateOrderInput struct {
	UserID   string
	EventID  string
	Seats    []string
	Attendee model.Attendee
}

// CreateOrder validates the request, prices it from the event record and
// opens a gateway order.  The order context is stored server-side so the
// verification step never trusts client-supplied amounts.
func (s *CheckoutService) CreateOrder(ctx context.Context, in CreateOrderInput) (checkout.CreatedOrder, error) {
	if errs := checkout.ValidateAttendee(in.Attendee); errs != nil {
		return checkout.CreatedOrder{}, errs
	}
	if len(in.Seats) == 0 {
		return checkout.CreatedOrder{}, checkout.FieldErrors{"seats": "Select at least one seat"}
	}
	if len(in.Seats) > s.MaxSeats {
		return checkout.CreatedOrder{}, checkout.FieldErrors{"seats": fmt.Sprintf("At most %d seats per booking", s.MaxSeats)}
	}

	ev, err := s.events.GetByID(ctx, in.EventID)
	if err != nil {
		return checkout.CreatedOrder{}, err
	}
	if ev.AvailableSeats < len(in.Seats) {
		return checkout.CreatedOrder{}, ErrInsufficientInventory
	}
	if errs := validateSeats(ev, in.Seats); errs != nil {
		return checkout.CreatedOrder{}, errs
	}

	intent, err := checkout.BuildOrderIntent(*ev, in.Attendee, in.Seats, in.UserID)
	if err != nil {
		return checkout.CreatedOrder{}, err
	}
	now := s.clk.Now()
	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   intent.AmountMinor,
		Currency: intent.Currency,
		Receipt:  checkout.Receipt(ev.ID, now.Unix()),
		Notes: map[string]string{
			"event":    ev.Title,
			"userId":   in.UserID,
			"platform": s.Platform,
		},
	})
	if err != nil {
		return checkout.CreatedOrder{}, err
	}

	pending := store.PendingOrder{
		OrderID:     order.ID,
		EventID:     ev.ID,
		UserID:      in.UserID,
		Seats:       intent.Seats,
		Attendee:    intent.Attendee,
		TicketPrice: intent.UnitPrice,
		Amount:      intent.Amount,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
		CreatedAt:   now,
	}
	if err := s.orders.Put(ctx, pending); err != nil {
		return checkout.CreatedOrder{}, fmt.Errorf("store order context: %w", err)
	}
	s.log.Info("checkout: order created", "order_id", order.ID, "event_id", ev.ID, "seats", len(in.Seats), "amount", intent.Amount)

	return checkout.CreatedOrder{
		OrderID:     order.ID,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
		KeyID:       s.KeyID,
	}, nil
}

// validateSeats checks that every seat exists in the event's layout, is
// currently available and appears once.
func validateSeats(ev *model.Event, seats []string) checkout.FieldErrors {
	layout := seating.GenerateLayout(ev.TotalSeats, ev.AvailableSeats)
	seen := make(map[string]bool, len(seats))
	for _, id := range seats {
		seat, ok := layout.Lookup(id)
		switch {
		case !ok:
			return checkout.FieldErrors{"seats": "Unknown seat " + id}
		case seen[id]:
			return checkout.FieldErrors{"seats": "Seat " + id + " selected twice"}
		case !seat.Available:
			return checkout.FieldErrors{"seats": "Seat " + id + " is not available"}
		}
		seen[id] = true
	}
	return nil
}

// VerifyInput is the gateway callback relayed by the buyer.
type VerifyInput struct {
	UserID    string
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyAndBook authenticates the callback and, only if it checks out,
// writes the booking.  Any failure leaves no booking behind.
func (s *CheckoutService) VerifyAndBook(ctx context.Context, in VerifyInput) (*model.Booking, error) {
	pending, err := s.orders.Get(ctx, in.OrderID)
	if errors.Is(err, store.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if pending.UserID != in.UserID {
		return nil, ErrOrderNotFound
	}

	v, err := s.verifier.Verify(ctx, in.OrderID, in.PaymentID, in.Signature)
	if err != nil {
		s.log.Warn("checkout: payment verification failed", "order_id", in.OrderID, "payment_id", in.PaymentID, "err", err)
		return nil, err
	}
	if !v.Verified {
		return nil, payment.ErrInvalidSignature
	}
	if d := v.Details; d != nil {
		if d.OrderID != "" && d.OrderID != in.OrderID {
			return nil, ErrPaymentMismatch
		}
		if d.Amount != 0 && d.Amount != pending.AmountMinor {
			return nil, ErrPaymentMismatch
		}
	}

	booking, ev, err := s.writer.Write(ctx, WriteInput{
		Order:     pending,
		PaymentID: in.PaymentID,
		OrderID:   in.OrderID,
		Signature: in.Signature,
		Details:   v.Details,
	})
	if err != nil {
		return nil, err
	}
	if err := s.orders.Delete(ctx, in.OrderID); err != nil {
		s.log.Warn("checkout: order context cleanup failed", "order_id", in.OrderID, "err", err)
	}
	s.log.Info("checkout: booking created", "booking_id", booking.ID, "event_id", ev.ID, "seats", booking.TicketCount)

	s.publish(ctx, booking, ev)
	return booking, nil
}

// publish queues the confirmation email.  A failure is logged; the
// booking stands regardless.
func (s *CheckoutService) publish(ctx context.Context, b *model.Booking, ev *model.Event) {
	if s.publisher == nil {
		return
	}
	msg := queue.BookingConfirmedEvent{
		BookingID:     b.ID,
		UserID:        b.UserID,
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		EventDate:     ev.Date,
		EventTime:     ev.Time,
		Venue:         ev.Venue,
		Address:       ev.Address,
		AttendeeName:  b.Attendee.Name,
		AttendeeEmail: b.Attendee.Email,
		AttendeePhone: b.Attendee.Phone,
		Seats:         b.SeatNumbers,
		TicketCount:   b.TicketCount,
		TicketPrice:   b.TicketPrice,
		Amount:        b.Amount,
		PaymentID:     b.PaymentID,
		OrderID:       b.OrderID,
		ConfirmedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishBookingConfirmed(pubCtx, msg); err != nil {
		s.log.Warn("checkout: booking confirmation not queued", "booking_id", b.ID, "err", err)
	}
}
