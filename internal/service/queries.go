package service

import (
	"context"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/seating"
	"github.com/iliyamo/event-ticketing/internal/ticket"
)

// EventService serves the public catalogue.
type EventService struct {
	events EventReader
}

func NewEventService(events EventReader) *EventService {
	return &EventService{events: events}
}

// List returns one page of events and the total match count.
func (s *EventService) List(ctx context.Context, q repository.EventQuery) ([]model.Event, int64, error) {
	return s.events.List(ctx, q)
}

func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	return s.events.GetByID(ctx, id)
}

// SeatLayout returns the seat map for an event as of now.
func (s *EventService) SeatLayout(ctx context.Context, id string) (seating.Layout, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return seating.GenerateLayout(ev.TotalSeats, ev.AvailableSeats), nil
}

// Viewer identifies who is reading a booking.
type Viewer struct {
	UserID string
	Role   string
}

func (v Viewer) canSee(b *model.BookingDetail) bool {
	return v.Role == model.RoleAdmin || b.UserID == v.UserID
}

// BookingService reads bookings and renders their tickets.
type BookingService struct {
	bookings BookingReader
	clk      clock.Clock
	Brand    string
}

func NewBookingService(b BookingReader, clk clock.Clock) *BookingService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &BookingService{bookings: b, clk: clk}
}

// Get returns a booking.  Customers only see their own.
func (s *BookingService) Get(ctx context.Context, id string, v Viewer) (*model.BookingDetail, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.canSee(b) {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListMine returns the viewer's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, v Viewer) ([]model.BookingDetail, error) {
	return s.bookings.ListByUser(ctx, v.UserID)
}

// ListForEvent returns every booking of an event.  Admin only.
func (s *BookingService) ListForEvent(ctx context.Context, eventID string, v Viewer) ([]model.BookingDetail, error) {
	if v.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.bookings.ListByEvent(ctx, eventID)
}

// TicketQR renders the booking's QR code as a PNG.
func (s *BookingService) TicketQR(ctx context.Context, id string, v Viewer, size int) ([]byte, error) {
	b, err := s.Get(ctx, id, v)
	if err != nil {
		return nil, err
	}
	return ticket.QRCodePNG(ticket.PayloadFor(b.Booking, s.clk.Now()), size)
}

// TicketPDF renders the printable e-ticket.
func (s *BookingService) TicketPDF(ctx context.Context, id string, v Viewer) ([]byte, error) {
	b, err := s.Get(ctx, id, v)
	if err != nil {
		return nil, err
	}
	return ticket.RenderPDF(ticket.Ticket{
		Booking: *b,
		Payload: ticket.PayloadFor(b.Booking, s.clk.Now()),
		Brand:   s.Brand,
	})
}
