// Package repository holds the MySQL data access for events, bookings,
// users and refresh tokens.  The sentinel values below let the service
// and handler layers tell failure cases apart without inspecting driver
// errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEventNotFound is returned when no event matches the given id.
// Handlers translate it into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when no booking matches the given id.
// Handlers translate it into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrAlreadyCheckedIn is returned by MarkCheckedIn when the booking was
// checked in before.  The stored check-in time and operator are left
// untouched.  Handlers translate it into an HTTP 409 response.
var ErrAlreadyCheckedIn = errors.New("booking already checked in")

// ErrInsufficientSeats is returned by DecrementAvailableTx when the event
// has fewer seats left than requested.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrForbidden is returned when the caller asks for a booking they do
// not own.  Handlers translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// isDuplicate reports whether err is a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
