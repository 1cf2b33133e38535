package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/seating"
)

// EventCatalog is the read side of events.
type EventCatalog interface {
	List(ctx context.Context, q repository.EventQuery) ([]model.Event, int64, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	SeatLayout(ctx context.Context, id string) (seating.Layout, error)
}

// EventHandler serves the public catalogue.  No authentication.
type EventHandler struct {
	Events EventCatalog
	Log    *slog.Logger
}

func NewEventHandler(events EventCatalog, log *slog.Logger) *EventHandler {
	return &EventHandler{Events: events, Log: log}
}

// List handles GET /v1/events?q=&category=&page=&page_size=.
func (h *EventHandler) List(c echo.Context) error {
	q := repository.EventQuery{
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Page:     atoiDefault(c.QueryParam("page"), 1),
		PageSize: atoiDefault(c.QueryParam("page_size"), 20),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	items, total, err := h.Events.List(c.Request().Context(), q)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if items == nil {
		items = []model.Event{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	ev, err := h.Events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// Seats handles GET /v1/events/:id/seats.  The layout is grouped per
// table the way the seat picker draws it.
func (h *EventHandler) Seats(c echo.Context) error {
	layout, err := h.Events.SeatLayout(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id":  c.Param("id"),
		"available": layout.AvailableCount(),
		"max_pick":  seating.DefaultMaxSelection,
		"tables":    layout.Tables(),
	})
}

func atoiDefault(s string, d int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return d
}
