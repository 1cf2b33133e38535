package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/checkout"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// CheckoutAPI opens orders and completes them.
type CheckoutAPI interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (checkout.CreatedOrder, error)
	VerifyAndBook(ctx context.Context, in service.VerifyInput) (*model.Booking, error)
}

// CheckoutHandler serves the two server-side steps of checkout.
type CheckoutHandler struct {
	Checkout CheckoutAPI
	Log      *slog.Logger
}

func NewCheckoutHandler(api CheckoutAPI, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{Checkout: api, Log: log}
}

// CreateOrder handles POST /v1/checkout/orders.  The amount is computed
// from the event price; the body only names seats and the attendee.
func (h *CheckoutHandler) CreateOrder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req checkout.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.EventID) == "" {
		return c.JSON(http.StatusBadRequest, apiError{Error: "validation failed", Code: "validation_error", Fields: map[string]string{"event_id": "Event is required"}})
	}
	order, err := h.Checkout.CreateOrder(c.Request().Context(), service.CreateOrderInput{
		UserID:   uid,
		EventID:  req.EventID,
		Seats:    req.Seats,
		Attendee: req.Attendee,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// Verify handles POST /v1/checkout/verify.  A booking is written only
// after the signature and the gateway's payment record check out.
func (h *CheckoutHandler) Verify(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req checkout.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.Checkout.VerifyAndBook(c.Request().Context(), service.VerifyInput{
		UserID:    uid,
		OrderID:   strings.TrimSpace(req.OrderID),
		PaymentID: strings.TrimSpace(req.PaymentID),
		Signature: strings.TrimSpace(req.Signature),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": b})
}
