package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/notify"
)

// Notifier sends the transactional emails.
type Notifier interface {
	SendTicketConfirmation(ctx context.Context, t notify.TicketConfirmation) error
	SendCheckInConfirmation(ctx context.Context, ci notify.CheckInConfirmation) error
}

// NotifyHandler exposes manual email triggers for the box office, e.g. to
// resend a lost ticket.  Both answer {success, error?}.
type NotifyHandler struct {
	Notifier Notifier
	Log      *slog.Logger
}

func NewNotifyHandler(n Notifier, log *slog.Logger) *NotifyHandler {
	return &NotifyHandler{Notifier: n, Log: log}
}

type notifyResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TicketConfirmation handles POST /v1/notify/ticket-confirmation.
func (h *NotifyHandler) TicketConfirmation(c echo.Context) error {
	var req notify.TicketConfirmation
	if err := c.Bind(&req); err != nil || req.To == "" || req.BookingID == "" {
		return c.JSON(http.StatusBadRequest, notifyResult{Error: "to and booking_id are required"})
	}
	if err := h.Notifier.SendTicketConfirmation(c.Request().Context(), req); err != nil {
		return c.JSON(http.StatusBadGateway, notifyResult{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, notifyResult{Success: true})
}

// CheckInConfirmation handles POST /v1/notify/checkin-confirmation.
func (h *NotifyHandler) CheckInConfirmation(c echo.Context) error {
	var req notify.CheckInConfirmation
	if err := c.Bind(&req); err != nil || req.To == "" || req.BookingID == "" {
		return c.JSON(http.StatusBadRequest, notifyResult{Error: "to and booking_id are required"})
	}
	if err := h.Notifier.SendCheckInConfirmation(c.Request().Context(), req); err != nil {
		return c.JSON(http.StatusBadGateway, notifyResult{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, notifyResult{Success: true})
}
