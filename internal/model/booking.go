package model

import (
	"encoding/json"
	"time"
)

// PaymentStatus is the lifecycle state of a booking's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Attendee is the contact captured on the checkout form.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking records a verified purchase.  It is written once, after the
// payment signature checked out, and later only touched by check-in.
// Amount always equals len(SeatNumbers) * TicketPrice.
type Booking struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	EventID        string          `json:"event_id"`
	Attendee       Attendee        `json:"attendee"`
	SeatNumbers    []string        `json:"seat_numbers"`
	TicketCount    int             `json:"ticket_count"`
	PaymentID      string          `json:"payment_id"`
	OrderID        string          `json:"order_id"`
	Signature      string          `json:"-"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentDetails json.RawMessage `json:"payment_details,omitempty"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Amount         int64           `json:"amount"`
	TicketPrice    int64           `json:"ticket_price"`
	CheckedIn      bool            `json:"checked_in"`
	CheckedInAt    *time.Time      `json:"checked_in_at,omitempty"`
	CheckedInBy    *string         `json:"checked_in_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BookingDetail is a booking joined with the event it belongs to, as
// shown on the ticket view and in admin lists.
type BookingDetail struct {
	Booking
	EventTitle string `json:"event_title"`
	EventDate  string `json:"event_date"`
	EventTime  string `json:"event_time"`
	Venue      string `json:"venue"`
	Address    string `json:"address"`
}
