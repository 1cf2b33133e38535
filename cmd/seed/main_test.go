package main

import (
	"os"
	"strings"
	"testing"
)

func TestParseSeedSampleFile(t *testing.T) {
	f, err := os.Open("events.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err := parseSeed(f)
	if err != nil {
		t.Fatalf("parseSeed: %v", err)
	}
	if len(s.Events) != 2 || len(s.Admins) != 1 {
		t.Fatalf("got %d events, %d admins", len(s.Events), len(s.Admins))
	}
	jazz := s.Events[0]
	if jazz.Price != 600 || jazz.TotalSeats != 120 || jazz.AvailableSeats != 120 {
		t.Fatalf("jazz = %+v", jazz)
	}
	if jazz.Date != "2026-12-12" || jazz.Time != "19:30" {
		t.Fatalf("schedule = %q %q", jazz.Date, jazz.Time)
	}
}

func TestParseSeedRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "events:\n  - title: x\n    total_seats: 1\n    seats: 3\n",
		"no title":      "events:\n  - total_seats: 10\n",
		"no seats":      "events:\n  - title: x\n",
		"oversold":      "events:\n  - title: x\n    total_seats: 2\n    available_seats: 5\n",
		"negative":      "events:\n  - title: x\n    total_seats: 2\n    price: -1\n",
		"admin no pass": "admins:\n  - email: a@b.c\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseSeed(strings.NewReader(src)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseSeedEmpty(t *testing.T) {
	s, err := parseSeed(strings.NewReader(""))
	if err != nil || len(s.Events) != 0 {
		t.Fatalf("empty file: %+v, %v", s, err)
	}
}

func TestParseSeedAvailableSeats(t *testing.T) {
	src := "events:\n" +
		"  - title: Sold Out Show\n    total_seats: 16\n    available_seats: 0\n" +
		"  - title: Half Gone\n    total_seats: 16\n    available_seats: 8\n" +
		"  - title: Fresh\n    total_seats: 16\n"
	s, err := parseSeed(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parseSeed: %v", err)
	}
	for i, want := range []int{0, 8, 16} {
		if got := s.Events[i].AvailableSeats; got != want {
			t.Errorf("%s: available = %d, want %d", s.Events[i].Title, got, want)
		}
	}
}
