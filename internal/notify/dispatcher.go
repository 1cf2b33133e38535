package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/ticket"
)

// Dispatcher renders and sends the ticket and check-in emails.
type Dispatcher struct {
	mailer Mailer
	log    *slog.Logger
	clk    clock.Clock
	Brand  string
}

// NewDispatcher returns a dispatcher sending through m.
func NewDispatcher(m Mailer, log *slog.Logger, clk clock.Clock) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Dispatcher{mailer: m, log: log, clk: clk}
}

// SendTicketConfirmation emails the buyer their booking with the PDF
// e-ticket attached.  A PDF failure downgrades to an email without
// attachment.
func (d *Dispatcher) SendTicketConfirmation(ctx context.Context, t TicketConfirmation) error {
	if t.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrEmailDeliveryFailed)
	}
	subject, html, text, err := renderTicket(t)
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrEmailDeliveryFailed, err)
	}
	e := Email{To: t.To, Subject: subject, HTML: html, Text: text}

	pdf, err := ticket.RenderPDF(ticket.Ticket{
		Booking: bookingFromConfirmation(t),
		Payload: ticket.QRPayload{
			BookingID: t.BookingID,
			UserID:    t.UserID,
			EventID:   t.EventID,
			PaymentID: t.PaymentID,
			Timestamp: d.clk.Now().Format(time.RFC3339),
		},
		Brand: d.Brand,
	})
	if err != nil {
		d.log.Warn("notify: e-ticket render failed, sending without attachment", "booking_id", t.BookingID, "err", err)
	} else {
		e.Attachments = append(e.Attachments, NewAttachment("e-ticket-"+t.BookingID+".pdf", pdf))
	}

	if err := d.mailer.Send(ctx, e); err != nil {
		d.log.Error("notify: ticket confirmation failed", "booking_id", t.BookingID, "err", err)
		return err
	}
	return nil
}

// SendCheckInConfirmation emails the attendee after check-in.
func (d *Dispatcher) SendCheckInConfirmation(ctx context.Context, c CheckInConfirmation) error {
	if c.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrEmailDeliveryFailed)
	}
	subject, html, text, err := renderCheckIn(c)
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrEmailDeliveryFailed, err)
	}
	if err := d.mailer.Send(ctx, Email{To: c.To, Subject: subject, HTML: html, Text: text}); err != nil {
		d.log.Error("notify: check-in confirmation failed", "booking_id", c.BookingID, "err", err)
		return err
	}
	return nil
}

// HandleBookingConfirmed is the queue handler for booking.confirmed.
func (d *Dispatcher) HandleBookingConfirmed(ctx context.Context, body []byte) error {
	var ev queue.BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return d.SendTicketConfirmation(ctx, TicketFromEvent(ev))
}

// HandleCheckInConfirmed is the queue handler for booking.checked_in.
func (d *Dispatcher) HandleCheckInConfirmed(ctx context.Context, body []byte) error {
	var ev queue.CheckInConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return d.SendCheckInConfirmation(ctx, CheckInFromEvent(ev))
}

// Register wires the dispatcher's handlers into c.
func (d *Dispatcher) Register(c *queue.Consumer) {
	c.Handle(queue.BookingConfirmedQueue, d.HandleBookingConfirmed)
	c.Handle(queue.CheckInConfirmedQueue, d.HandleCheckInConfirmed)
}

// TicketFromEvent flattens a queue event into the email record.
func TicketFromEvent(ev queue.BookingConfirmedEvent) TicketConfirmation {
	return TicketConfirmation{
		To:          ev.AttendeeEmail,
		Name:        ev.AttendeeName,
		BookingID:   ev.BookingID,
		UserID:      ev.UserID,
		EventID:     ev.EventID,
		EventTitle:  ev.EventTitle,
		EventDate:   ev.EventDate,
		EventTime:   ev.EventTime,
		Venue:       ev.Venue,
		Address:     ev.Address,
		Seats:       ev.Seats,
		TicketPrice: ev.TicketPrice,
		Amount:      ev.Amount,
		PaymentID:   ev.PaymentID,
	}
}

// CheckInFromEvent flattens a queue event into the email record.
func CheckInFromEvent(ev queue.CheckInConfirmedEvent) CheckInConfirmation {
	return CheckInConfirmation{
		To:          ev.AttendeeEmail,
		Name:        ev.AttendeeName,
		BookingID:   ev.BookingID,
		EventTitle:  ev.EventTitle,
		EventDate:   ev.EventDate,
		EventTime:   ev.EventTime,
		Venue:       ev.Venue,
		Seats:       ev.Seats,
		CheckedInAt: ev.CheckedInAt,
		CheckedInBy: ev.CheckedInBy,
	}
}

func bookingFromConfirmation(t TicketConfirmation) model.BookingDetail {
	return model.BookingDetail{
		Booking: model.Booking{
			ID:            t.BookingID,
			UserID:        t.UserID,
			EventID:       t.EventID,
			Attendee:      model.Attendee{Name: t.Name, Email: t.To},
			SeatNumbers:   t.Seats,
			TicketCount:   len(t.Seats),
			PaymentID:     t.PaymentID,
			PaymentStatus: model.PaymentCompleted,
			Amount:        t.Amount,
			TicketPrice:   t.TicketPrice,
		},
		EventTitle: t.EventTitle,
		EventDate:  t.EventDate,
		EventTime:  t.EventTime,
		Venue:      t.Venue,
		Address:    t.Address,
	}
}

// Inline sends notifications from the process itself instead of through
// RabbitMQ.  It is wired when the broker is disabled.  Sends run in the
// background so the request that triggered them never waits.
type Inline struct {
	D       *Dispatcher
	Timeout time.Duration

	wg sync.WaitGroup
}

func (in *Inline) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	in.spawn(func(ctx context.Context) { _ = in.D.SendTicketConfirmation(ctx, TicketFromEvent(ev)) })
	return nil
}

func (in *Inline) PublishCheckInConfirmed(_ context.Context, ev queue.CheckInConfirmedEvent) error {
	in.spawn(func(ctx context.Context) { _ = in.D.SendCheckInConfirmation(ctx, CheckInFromEvent(ev)) })
	return nil
}

// Wait blocks until every background send has finished.
func (in *Inline) Wait() { in.wg.Wait() }

func (in *Inline) spawn(fn func(ctx context.Context)) {
	timeout := in.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	}()
}
