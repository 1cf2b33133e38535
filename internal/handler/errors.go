package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/checkout"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/payment"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// apiError is the JSON error body.  Code is stable and machine readable;
// the checkout client maps it back onto its sentinels.
type apiError struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
	msg    string
}

// errorTable is checked in order; the first match wins.
var errorTable = []errorMapping{
	{payment.ErrAmountTooSmall, http.StatusBadRequest, "amount_too_small", "amount below gateway minimum"},
	{payment.ErrOrderCreationFailed, http.StatusBadGateway, "order_creation_failed", "could not create payment order"},
	{payment.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature", "payment verification failed"},
	{payment.ErrMissingFields, http.StatusBadRequest, "missing_fields", "order_id, payment_id and signature are required"},
	{payment.ErrPaymentFetchFailed, http.StatusBadGateway, "payment_fetch_failed", "could not fetch payment details"},
	{service.ErrPaymentMismatch, http.StatusBadRequest, "payment_mismatch", "payment does not match order"},
	{service.ErrOrderNotFound, http.StatusNotFound, "order_not_found", "order not found or expired"},
	{checkout.ErrNoSeats, http.StatusBadRequest, "no_seats", "select at least one seat"},
	{service.ErrEventNotFound, http.StatusNotFound, "event_not_found", "event not found"},
	{service.ErrInsufficientInventory, http.StatusConflict, "insufficient_inventory", "not enough seats left"},
	{service.ErrAlreadyCheckedIn, http.StatusConflict, "already_checked_in", "ticket already checked in"},
	{service.ErrBookingNotFound, http.StatusNotFound, "booking_not_found", "booking not found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden", "forbidden"},
	{service.ErrInvalidTicket, http.StatusBadRequest, "invalid_ticket", "invalid ticket"},
}

// respondError writes err as JSON.  Unknown errors are logged and hidden
// behind a 500.
func respondError(c echo.Context, log *slog.Logger, err error) error {
	var fe checkout.FieldErrors
	if errors.As(err, &fe) {
		return c.JSON(http.StatusBadRequest, apiError{Error: "validation failed", Code: "validation_error", Fields: fe})
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return c.JSON(m.status, apiError{Error: m.msg, Code: m.code})
		}
	}
	if log != nil {
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	}
	return c.JSON(http.StatusInternalServerError, apiError{Error: "internal error"})
}

// getUserID returns the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (string, error) {
	if s, ok := c.Get(middleware.CtxUserID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid user_id in context")
}

// viewer returns the caller as seen by the booking service.
func viewer(c echo.Context) (service.Viewer, error) {
	uid, err := getUserID(c)
	if err != nil {
		return service.Viewer{}, err
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	if role == "" {
		role = model.RoleCustomer
	}
	return service.Viewer{UserID: uid, Role: role}, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
