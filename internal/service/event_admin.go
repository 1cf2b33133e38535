package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/checkout"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// maxEventSeats caps the layout a single event can be created with.
const maxEventSeats = 5000

// EventWriter persists events.
type EventWriter interface {
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
}

// EventInput is the organiser's description of an event.
type EventInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Venue       string  `json:"venue"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Price       int64   `json:"price"`
	TotalSeats  int     `json:"total_seats"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
}

// EventAdmin lets the box office publish and edit events.
type EventAdmin struct {
	events EventWriter
	log    *slog.Logger
}

func NewEventAdmin(events EventWriter, log *slog.Logger) *EventAdmin {
	if log == nil {
		log = slog.Default()
	}
	return &EventAdmin{events: events, log: log}
}

// Create publishes a new event with every seat for sale.
func (a *EventAdmin) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	in = in.trimmed()
	if errs := in.validate(true); errs != nil {
		return nil, errs
	}
	ev := in.event()
	ev.AvailableSeats = ev.TotalSeats
	if err := a.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	a.log.Info("event created", "event_id", ev.ID, "title", ev.Title, "seats", ev.TotalSeats)
	return ev, nil
}

// Update rewrites an event's details and price.  Seat counts cannot be
// changed once an event is on sale; TotalSeats in the input is ignored.
func (a *EventAdmin) Update(ctx context.Context, id string, in EventInput) (*model.Event, error) {
	in = in.trimmed()
	if errs := in.validate(false); errs != nil {
		return nil, errs
	}
	ev := in.event()
	ev.ID = id
	if err := a.events.Update(ctx, ev); err != nil {
		return nil, err
	}
	a.log.Info("event updated", "event_id", id)
	return ev, nil
}

func (in EventInput) trimmed() EventInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Venue = strings.TrimSpace(in.Venue)
	in.Address = strings.TrimSpace(in.Address)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	return in
}

func (in EventInput) validate(creating bool) checkout.FieldErrors {
	errs := checkout.FieldErrors{}
	if in.Title == "" {
		errs["title"] = "Title is required"
	}
	if in.Venue == "" {
		errs["venue"] = "Venue is required"
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		errs["date"] = "Date must be YYYY-MM-DD"
	}
	if in.Time != "" {
		if _, err := time.Parse("15:04", in.Time); err != nil {
			errs["time"] = "Time must be HH:MM"
		}
	}
	if in.Price < 0 {
		errs["price"] = "Price cannot be negative"
	}
	if creating && (in.TotalSeats <= 0 || in.TotalSeats > maxEventSeats) {
		errs["total_seats"] = fmt.Sprintf("Total seats must be between 1 and %d", maxEventSeats)
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		errs["location"] = "Coordinates out of range"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (in EventInput) event() *model.Event {
	return &model.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Time:        in.Time,
		Venue:       in.Venue,
		Address:     in.Address,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Price:       in.Price,
		TotalSeats:  in.TotalSeats,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
	}
}
