package model

import "time"

// Event represents a ticketed event as stored in the `events` table.
// Seats are sold as a pool: only AvailableSeats is tracked, never which
// seat labels were sold.
//
// Fields:
//  ID             – UUID primary key.
//  Title          – display title, also sent to the gateway as the order description.
//  Description    – long form description.
//  Date, Time     – display strings as entered by the organiser.
//  Venue, Address – venue name and street address.
//  Latitude/Longitude – geocoordinates for the map view.
//  Price          – price per seat in rupees.
//  TotalSeats     – seats in the venue layout.
//  AvailableSeats – seats still for sale; 0 <= AvailableSeats <= TotalSeats.
//  ImageURL       – poster reference.
//  Category       – free-form tag (music, comedy, ...).
type Event struct {
	ID             string    `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description" yaml:"description"`
	Date           string    `json:"date" yaml:"date"`
	Time           string    `json:"time" yaml:"time"`
	Venue          string    `json:"venue" yaml:"venue"`
	Address        string    `json:"address" yaml:"address"`
	Latitude       float64   `json:"latitude" yaml:"latitude"`
	Longitude      float64   `json:"longitude" yaml:"longitude"`
	Price          int64     `json:"price" yaml:"price"`
	TotalSeats     int       `json:"total_seats" yaml:"total_seats"`
	AvailableSeats int       `json:"available_seats" yaml:"available_seats"`
	ImageURL       string    `json:"image_url" yaml:"image_url"`
	Category       string    `json:"category" yaml:"category"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"-"`
}
