package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iliyamo/event-ticketing/internal/checkout"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

type memEvents struct {
	byID map[string]model.Event
	seq  int
}

func (m *memEvents) Create(_ context.Context, e *model.Event) error {
	m.seq++
	e.ID = fmt.Sprintf("ev-%d", m.seq)
	m.byID[e.ID] = *e
	return nil
}

func (m *memEvents) Update(_ context.Context, e *model.Event) error {
	cur, ok := m.byID[e.ID]
	if !ok {
		return repository.ErrEventNotFound
	}
	e.TotalSeats, e.AvailableSeats = cur.TotalSeats, cur.AvailableSeats
	m.byID[e.ID] = *e
	return nil
}

func validEventInput() EventInput {
	return EventInput{
		Title:      "  Comedy Night ",
		Date:       "2026-11-02",
		Time:       "20:00",
		Venue:      "The Attic",
		Price:      400,
		TotalSeats: 24,
		Category:   " Comedy",
	}
}

func TestEventAdmin_Create(t *testing.T) {
	store := &memEvents{byID: map[string]model.Event{}}
	a := NewEventAdmin(store, logger.Discard())

	ev, err := a.Create(context.Background(), validEventInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ev.Title != "Comedy Night" || ev.Category != "comedy" {
		t.Fatalf("input not normalised: %+v", ev)
	}
	if ev.AvailableSeats != 24 {
		t.Fatalf("available = %d, want every seat on sale", ev.AvailableSeats)
	}
}

func TestEventAdmin_CreateRejects(t *testing.T) {
	a := NewEventAdmin(&memEvents{byID: map[string]model.Event{}}, logger.Discard())
	cases := map[string]struct {
		mutate func(*EventInput)
		field  string
	}{
		"no title":  {func(in *EventInput) { in.Title = " " }, "title"},
		"bad date":  {func(in *EventInput) { in.Date = "02/11/2026" }, "date"},
		"bad time":  {func(in *EventInput) { in.Time = "8pm" }, "time"},
		"no seats":  {func(in *EventInput) { in.TotalSeats = 0 }, "total_seats"},
		"huge":      {func(in *EventInput) { in.TotalSeats = maxEventSeats + 1 }, "total_seats"},
		"negative":  {func(in *EventInput) { in.Price = -5 }, "price"},
		"off globe": {func(in *EventInput) { in.Latitude = 91 }, "location"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validEventInput()
			tc.mutate(&in)
			_, err := a.Create(context.Background(), in)
			var fe checkout.FieldErrors
			if !errors.As(err, &fe) || fe[tc.field] == "" {
				t.Fatalf("err = %v, want field %q", err, tc.field)
			}
		})
	}
}

func TestEventAdmin_UpdateKeepsSeats(t *testing.T) {
	store := &memEvents{byID: map[string]model.Event{}}
	a := NewEventAdmin(store, logger.Discard())
	ctx := context.Background()
	ev, err := a.Create(ctx, validEventInput())
	if err != nil {
		t.Fatal(err)
	}

	in := validEventInput()
	in.Price = 450
	in.TotalSeats = 0
	got, err := a.Update(ctx, ev.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Price != 450 || got.TotalSeats != 24 {
		t.Fatalf("updated = %+v", got)
	}
	if _, err := a.Update(ctx, "missing", in); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}
