package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/ticket"
)

// CheckInService admits ticket holders at the door.
type CheckInService struct {
	bookings  BookingReader
	publisher Publisher
	clk       clock.Clock
	log       *slog.Logger
}

// NewCheckInService returns a check-in service.  publisher may be nil.
func NewCheckInService(b BookingReader, p Publisher, clk clock.Clock, log *slog.Logger) *CheckInService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = slog.Default()
	}
	return &CheckInService{bookings: b, publisher: p, clk: clk, log: log}
}

// Scan decodes QR content and checks its booking in.
func (s *CheckInService) Scan(ctx context.Context, raw []byte, operator string) (*model.BookingDetail, error) {
	p, err := ticket.DecodePayload(raw)
	if err != nil {
		return nil, ErrInvalidTicket
	}
	return s.CheckIn(ctx, p.BookingID, operator)
}

// CheckIn marks a booking as used.  A second attempt fails with
// ErrAlreadyCheckedIn and returns the booking as first checked in, so the
// operator can see when and by whom.
func (s *CheckInService) CheckIn(ctx context.Context, bookingID, operator string) (*model.BookingDetail, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, ErrInvalidTicket
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus != model.PaymentCompleted {
		return nil, ErrInvalidTicket
	}
	if b.CheckedIn {
		return b, ErrAlreadyCheckedIn
	}

	now := s.clk.Now().UTC()
	if err := s.bookings.MarkCheckedIn(ctx, bookingID, operator, now); err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			// Lost the race to another scanner; report its record.
			if cur, gerr := s.bookings.GetByID(ctx, bookingID); gerr == nil {
				return cur, ErrAlreadyCheckedIn
			}
		}
		return nil, err
	}
	b.CheckedIn = true
	b.CheckedInAt = &now
	b.CheckedInBy = &operator
	b.UpdatedAt = now
	s.log.Info("checkin: admitted", "booking_id", bookingID, "operator", operator, "seats", b.TicketCount)

	s.publish(ctx, b)
	return b, nil
}

func (s *CheckInService) publish(ctx context.Context, b *model.BookingDetail) {
	if s.publisher == nil {
		return
	}
	msg := queue.CheckInConfirmedEvent{
		BookingID:     b.ID,
		EventID:       b.EventID,
		EventTitle:    b.EventTitle,
		EventDate:     b.EventDate,
		EventTime:     b.EventTime,
		Venue:         b.Venue,
		AttendeeName:  b.Attendee.Name,
		AttendeeEmail: b.Attendee.Email,
		Seats:         b.SeatNumbers,
		CheckedInAt:   b.CheckedInAt.Format(time.RFC3339),
		CheckedInBy:   *b.CheckedInBy,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishCheckInConfirmed(pubCtx, msg); err != nil {
		s.log.Warn("checkin: confirmation not queued", "booking_id", b.ID, "err", err)
	}
}
