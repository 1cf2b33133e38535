package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// EventEditor publishes and edits events.
type EventEditor interface {
	Create(ctx context.Context, in service.EventInput) (*model.Event, error)
	Update(ctx context.Context, id string, in service.EventInput) (*model.Event, error)
}

// CreateEvent handles POST /v1/admin/events.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return unauthorized(c)
	}
	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ev, err := h.Events.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// UpdateEvent handles PUT /v1/admin/events/:id.  Seat counts are fixed
// once the event exists.
func (h *AdminHandler) UpdateEvent(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return unauthorized(c)
	}
	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ev, err := h.Events.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ev)
}
