package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// TicketConfirmation is the flat record behind the ticket email.  The
// queue consumer and the admin trigger endpoint both build one.
type TicketConfirmation struct {
	To          string   `json:"to"`
	Name        string   `json:"name"`
	BookingID   string   `json:"booking_id"`
	UserID      string   `json:"user_id"`
	EventID     string   `json:"event_id"`
	EventTitle  string   `json:"event_title"`
	EventDate   string   `json:"event_date"`
	EventTime   string   `json:"event_time"`
	Venue       string   `json:"venue"`
	Address     string   `json:"address"`
	Seats       []string `json:"seats"`
	TicketPrice int64    `json:"ticket_price"`
	Amount      int64    `json:"amount"`
	PaymentID   string   `json:"payment_id"`
}

// CheckInConfirmation is the flat record behind the check-in email.
type CheckInConfirmation struct {
	To          string   `json:"to"`
	Name        string   `json:"name"`
	BookingID   string   `json:"booking_id"`
	EventTitle  string   `json:"event_title"`
	EventDate   string   `json:"event_date"`
	EventTime   string   `json:"event_time"`
	Venue       string   `json:"venue"`
	Seats       []string `json:"seats"`
	CheckedInAt string   `json:"checked_in_at"`
	CheckedInBy string   `json:"checked_in_by"`
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

var ticketTmpl = template.Must(template.New("ticket").Funcs(funcs).Parse(`
<h2>Your tickets for {{.EventTitle}}</h2>
<p>Hi {{.Name}}, your booking is confirmed.</p>
<ul>
  <li><b>Booking ID:</b> {{.BookingID}}</li>
  <li><b>When:</b> {{.EventDate}} {{.EventTime}}</li>
  <li><b>Where:</b> {{.Venue}}{{if .Address}}, {{.Address}}{{end}}</li>
  <li><b>Seats:</b> {{join .Seats ", "}}</li>
  <li><b>Total paid:</b> &#8377;{{.Amount}}</li>
</ul>
<p>Your e-ticket is attached. Show its QR code at the entrance.</p>
`))

var checkInTmpl = template.Must(template.New("checkin").Funcs(funcs).Parse(`
<h2>Welcome to {{.EventTitle}}</h2>
<p>Hi {{.Name}}, you were checked in at {{.CheckedInAt}}.</p>
<ul>
  <li><b>Booking ID:</b> {{.BookingID}}</li>
  <li><b>Seats:</b> {{join .Seats ", "}}</li>
  <li><b>Venue:</b> {{.Venue}}</li>
</ul>
<p>Enjoy the event.</p>
`))

func renderTicket(t TicketConfirmation) (subject, html, text string, err error) {
	var buf bytes.Buffer
	if err := ticketTmpl.Execute(&buf, t); err != nil {
		return "", "", "", err
	}
	subject = fmt.Sprintf("Your tickets for %s [%s]", t.EventTitle, t.BookingID)
	text = fmt.Sprintf("Booking %s confirmed for %s. Seats: %s. Total paid: Rs. %d.",
		t.BookingID, t.EventTitle, strings.Join(t.Seats, ", "), t.Amount)
	return subject, buf.String(), text, nil
}

func renderCheckIn(c CheckInConfirmation) (subject, html, text string, err error) {
	var buf bytes.Buffer
	if err := checkInTmpl.Execute(&buf, c); err != nil {
		return "", "", "", err
	}
	subject = fmt.Sprintf("Checked in: %s", c.EventTitle)
	text = fmt.Sprintf("Booking %s checked in at %s.", c.BookingID, c.CheckedInAt)
	return subject, buf.String(), text, nil
}
