// Package checkout drives one buyer's path from seat pick to booking:
// it validates the attendee form, turns the selection into an order
// intent, opens the hosted payment UI and waits for its outcome, then
// hands the signed callback to the server for verification.
//
// The hosted UI reports back outside the normal call stack, so every
// piece of state the callback needs lives on the Session's Context,
// which is created once per session and passed by pointer.
package checkout

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/payment"
)

// ErrValidation matches any FieldErrors value with errors.Is.
var ErrValidation = errors.New("validation error")

// ErrNoSeats is returned when an order intent is built from an empty
// selection.
var ErrNoSeats = errors.New("no seats selected")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps form field names to a message.  It is the
// ValidationError of the checkout form.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for FieldErrors.
func (e FieldErrors) Is(target error) bool { return target == ErrValidation }

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateAttendee checks the checkout form.  It returns nil when every
// field is valid.
func ValidateAttendee(a model.Attendee) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(a.Name) == "" {
		errs["name"] = "Name is required"
	}
	email := strings.TrimSpace(a.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Email is invalid"
	}
	phone := strings.TrimSpace(a.Phone)
	switch {
	case phone == "":
		errs["phone"] = "Phone number is required"
	case len(NormalizePhone(phone)) != 10:
		errs["phone"] = "Phone number must be 10 digits"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// OrderIntent is what a payment order is created from.  It only lives
// for one payment handshake.
type OrderIntent struct {
	EventID     string         `json:"event_id"`
	EventTitle  string         `json:"event_title"`
	BuyerID     string         `json:"buyer_id"`
	Attendee    model.Attendee `json:"attendee"`
	Seats       []string       `json:"seats"`
	UnitPrice   int64          `json:"unit_price"`
	Amount      int64          `json:"amount"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    string         `json:"currency"`
}

// BuildOrderIntent validates the attendee and prices the selection.  On a
// validation failure it returns FieldErrors and nothing else happens.
func BuildOrderIntent(ev model.Event, a model.Attendee, seats []string, buyerID string) (OrderIntent, error) {
	if errs := ValidateAttendee(a); errs != nil {
		return OrderIntent{}, errs
	}
	if len(seats) == 0 {
		return OrderIntent{}, ErrNoSeats
	}
	amount := int64(len(seats)) * ev.Price
	picked := make([]string, len(seats))
	copy(picked, seats)
	return OrderIntent{
		EventID:    ev.ID,
		EventTitle: ev.Title,
		BuyerID:    buyerID,
		Attendee: model.Attendee{
			Name:  strings.TrimSpace(a.Name),
			Email: strings.TrimSpace(a.Email),
			Phone: NormalizePhone(a.Phone),
		},
		Seats:       picked,
		UnitPrice:   ev.Price,
		Amount:      amount,
		AmountMinor: payment.ToMinor(amount),
		Currency:    payment.Currency,
	}, nil
}

// Receipt builds the gateway receipt reference for an intent.
func Receipt(eventID string, unix int64) string {
	ref := eventID
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return fmt.Sprintf("rcpt_%s_%d", ref, unix)
}
