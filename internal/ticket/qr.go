// Package ticket builds what a buyer shows at the door: the QR payload
// encoded into the ticket and the printable PDF that carries it.
package ticket

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// DefaultQRSize is the PNG edge length in pixels.
const DefaultQRSize = 256

// ErrInvalidPayload is returned for QR content that is not a ticket.
var ErrInvalidPayload = errors.New("invalid ticket payload")

// QRPayload is the JSON encoded into a ticket's QR code.  Scanning only
// trusts BookingID; the rest is informational.
type QRPayload struct {
	BookingID string `json:"bookingId"`
	UserID    string `json:"userId"`
	EventID   string `json:"eventId"`
	PaymentID string `json:"paymentId"`
	Timestamp string `json:"timestamp"`
}

// PayloadFor builds the QR payload for a booking.
func PayloadFor(b model.Booking, at time.Time) QRPayload {
	return QRPayload{
		BookingID: b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		PaymentID: b.PaymentID,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

// EncodePayload returns the JSON text for p.
func EncodePayload(p QRPayload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload parses scanned QR content.  A payload without a booking
// id is rejected.
func DecodePayload(raw []byte) (QRPayload, error) {
	var p QRPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return QRPayload{}, ErrInvalidPayload
	}
	p.BookingID = strings.TrimSpace(p.BookingID)
	if p.BookingID == "" {
		return QRPayload{}, ErrInvalidPayload
	}
	return p, nil
}

// QRCodePNG renders p as a PNG QR code of size pixels.
func QRCodePNG(p QRPayload, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	raw, err := EncodePayload(p)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(raw), qrcode.Medium, size)
}
