package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// Ticket is everything printed on an e-ticket.
type Ticket struct {
	Booking model.BookingDetail
	Payload QRPayload
	Brand   string
}

// RenderPDF lays out a single A4 e-ticket with the QR code on the right of
// the booking summary.
func RenderPDF(t Ticket) ([]byte, error) {
	qr, err := QRCodePNG(t.Payload, DefaultQRSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	brand := t.Brand
	if brand == "" {
		brand = "EVENT TICKETS"
	}
	b := t.Booking

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, tr(strings.ToUpper(brand)+" E-TICKET"))
	pdf.Ln(20)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "BOOKING SUMMARY")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Booking ID: " + b.ID,
		"Name: " + b.Attendee.Name,
		"Seats: " + strings.Join(b.SeatNumbers, ", "),
		fmt.Sprintf("Tickets: %d x Rs. %d", len(b.SeatNumbers), b.TicketPrice),
		fmt.Sprintf("Total Paid: Rs. %d", b.Amount),
	}
	for _, l := range lines {
		pdf.SetX(20)
		pdf.Cell(0, 8, tr(l))
		pdf.Ln(6)
	}

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Show this QR code at the entrance.")
	pdf.Ln(10)

	section(pdf, "EVENT DETAILS")
	pdf.SetFont("Helvetica", "", 12)
	for _, kv := range [][2]string{
		{"Event", b.EventTitle},
		{"Date", strings.TrimSpace(b.EventDate + " " + b.EventTime)},
		{"Venue", b.Venue},
		{"Address", b.Address},
	} {
		if kv[1] == "" {
			continue
		}
		pdf.MultiCell(0, 7, tr(kv[0]+": "+kv[1]), "", "", false)
	}
	pdf.Ln(4)

	section(pdf, "PAYMENT")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr("Payment ID: "+b.PaymentID))
	pdf.Ln(6)
	if b.PaymentMethod != "" {
		pdf.Cell(0, 8, tr("Method: "+b.PaymentMethod))
		pdf.Ln(6)
	}
	pdf.Cell(0, 8, "Status: "+string(b.PaymentStatus))
	pdf.Ln(6)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, tr("This ticket admits the holders of the seats listed above once."), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
}
