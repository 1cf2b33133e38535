// Package queue defines the messages exchanged over RabbitMQ and the
// publisher and consumer that move them.
package queue

// Queue names.  Both are durable and use the default exchange with the
// queue name as routing key.
const (
	BookingConfirmedQueue = "booking.confirmed"
	CheckInConfirmedQueue = "booking.checked_in"
)

// BookingConfirmedEvent is published once a booking is committed.  It
// carries enough information to render the ticket email without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     string   `json:"booking_id"`
	UserID        string   `json:"user_id"`
	EventID       string   `json:"event_id"`
	EventTitle    string   `json:"event_title"`
	EventDate     string   `json:"event_date"`
	EventTime     string   `json:"event_time"`
	Venue         string   `json:"venue"`
	Address       string   `json:"address"`
	AttendeeName  string   `json:"attendee_name"`
	AttendeeEmail string   `json:"attendee_email"`
	AttendeePhone string   `json:"attendee_phone"`
	Seats         []string `json:"seats"`
	TicketCount   int      `json:"ticket_count"`
	TicketPrice   int64    `json:"ticket_price"`
	Amount        int64    `json:"amount"`
	PaymentID     string   `json:"payment_id"`
	OrderID       string   `json:"order_id"`
	ConfirmedAt   string   `json:"confirmed_at"`
}

// CheckInConfirmedEvent is published after a booking is checked in at
// the door.
type CheckInConfirmedEvent struct {
	BookingID     string   `json:"booking_id"`
	EventID       string   `json:"event_id"`
	EventTitle    string   `json:"event_title"`
	EventDate     string   `json:"event_date"`
	EventTime     string   `json:"event_time"`
	Venue         string   `json:"venue"`
	AttendeeName  string   `json:"attendee_name"`
	AttendeeEmail string   `json:"attendee_email"`
	Seats         []string `json:"seats"`
	CheckedInAt   string   `json:"checked_in_at"`
	CheckedInBy   string   `json:"checked_in_by"`
}
