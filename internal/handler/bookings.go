package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
	"github.com/iliyamo/event-ticketing/internal/ticket"
)

// BookingQueries is the read side of bookings.
type BookingQueries interface {
	Get(ctx context.Context, id string, v service.Viewer) (*model.BookingDetail, error)
	ListMine(ctx context.Context, v service.Viewer) ([]model.BookingDetail, error)
	ListForEvent(ctx context.Context, eventID string, v service.Viewer) ([]model.BookingDetail, error)
	TicketQR(ctx context.Context, id string, v service.Viewer, size int) ([]byte, error)
	TicketPDF(ctx context.Context, id string, v service.Viewer) ([]byte, error)
}

// BookingHandler serves a customer's bookings and tickets.
type BookingHandler struct {
	Bookings BookingQueries
	Log      *slog.Logger
}

func NewBookingHandler(b BookingQueries, log *slog.Logger) *BookingHandler {
	return &BookingHandler{Bookings: b, Log: log}
}

// Mine handles GET /v1/my-bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return unauthorized(c)
	}
	items, err := h.Bookings.ListMine(c.Request().Context(), v)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.BookingDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id.  Another customer's booking answers
// 404 so ids cannot be probed.
func (h *BookingHandler) Get(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return unauthorized(c)
	}
	b, err := h.Bookings.Get(c.Request().Context(), c.Param("id"), v)
	if errors.Is(err, service.ErrForbidden) {
		err = service.ErrBookingNotFound
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// QR handles GET /v1/bookings/:id/qr.png?size=.
func (h *BookingHandler) QR(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return unauthorized(c)
	}
	size := atoiDefault(c.QueryParam("size"), ticket.DefaultQRSize)
	if size < 64 || size > 1024 {
		size = ticket.DefaultQRSize
	}
	png, err := h.Bookings.TicketQR(c.Request().Context(), c.Param("id"), v, size)
	if errors.Is(err, service.ErrForbidden) {
		err = service.ErrBookingNotFound
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	c.Response().Header().Set("Cache-Control", "private, no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}

// PDF handles GET /v1/bookings/:id/ticket.pdf.
func (h *BookingHandler) PDF(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return unauthorized(c)
	}
	id := c.Param("id")
	pdf, err := h.Bookings.TicketPDF(c.Request().Context(), id, v)
	if errors.Is(err, service.ErrForbidden) {
		err = service.ErrBookingNotFound
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="e-ticket-`+id+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
