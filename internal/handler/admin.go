package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// CheckInAPI admits ticket holders.
type CheckInAPI interface {
	CheckIn(ctx context.Context, bookingID, operator string) (*model.BookingDetail, error)
	Scan(ctx context.Context, raw []byte, operator string) (*model.BookingDetail, error)
}

// AdminHandler serves the box office: event management, attendee lists
// and check-in.
type AdminHandler struct {
	Bookings BookingQueries
	CheckIns CheckInAPI
	Events   EventEditor
	Log      *slog.Logger
}

func NewAdminHandler(b BookingQueries, ci CheckInAPI, log *slog.Logger) *AdminHandler {
	return &AdminHandler{Bookings: b, CheckIns: ci, Log: log}
}

// EventBookings handles GET /v1/admin/events/:id/bookings.
func (h *AdminHandler) EventBookings(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return unauthorized(c)
	}
	items, err := h.Bookings.ListForEvent(c.Request().Context(), c.Param("id"), v)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.BookingDetail{}
	}
	checkedIn := 0
	for _, b := range items {
		if b.CheckedIn {
			checkedIn++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items), "checked_in": checkedIn})
}

// CheckIn handles POST /v1/admin/bookings/:id/check-in.
func (h *AdminHandler) CheckIn(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return unauthorized(c)
	}
	b, err := h.CheckIns.CheckIn(c.Request().Context(), c.Param("id"), operator(c))
	return h.checkInResult(c, b, err)
}

// Scan handles POST /v1/admin/check-in/scan.  The body is the decoded QR
// text, either raw or wrapped as {"payload": "..."}.
func (h *AdminHandler) Scan(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return unauthorized(c)
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, 8<<10))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.CheckIns.Scan(c.Request().Context(), unwrapScan(raw), operator(c))
	return h.checkInResult(c, b, err)
}

// checkInResult answers 409 with the original record for a repeat scan so
// the operator sees when and by whom the ticket was used.
func (h *AdminHandler) checkInResult(c echo.Context, b *model.BookingDetail, err error) error {
	if errors.Is(err, service.ErrAlreadyCheckedIn) && b != nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "ticket already checked in",
			"code":    "already_checked_in",
			"booking": b,
		})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// unwrapScan accepts {"payload":"<qr json>"} as well as the QR JSON
// itself.
func unwrapScan(raw []byte) []byte {
	var w struct {
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(raw, &w); err == nil && strings.TrimSpace(w.Payload) != "" {
		return []byte(w.Payload)
	}
	return raw
}

// operator labels the check-in with the admin's name, or their id.
func operator(c echo.Context) string {
	if name, ok := c.Get(middleware.CtxUserName).(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	uid, _ := getUserID(c)
	return uid
}
