// Package seating generates the seat map shown at checkout and tracks the
// buyer's current pick.
//
// Availability is count based: the venue only knows how many seats are
// left, not which ones were sold.  A seat with ordinal n (1-based across
// all tables) is shown as available iff n <= availableSeats.  Two buyers
// checking out at the same time can therefore be issued the same seat
// label; the booking service accepts that and only guards the count.
package seating

import "fmt"

const (
	// DefaultTotalSeats is the seat count of the standard venue layout.
	DefaultTotalSeats = 16
	// SeatsPerTable is the number of cardinal positions around a table.
	SeatsPerTable = 4
)

// positions are the cardinal labels around a table, in ordinal order.
var positions = [SeatsPerTable]string{"N", "E", "S", "W"}

// Seat is one entry of the generated layout.
type Seat struct {
	ID        string `json:"id"`
	Table     int    `json:"table"`
	Position  string `json:"position"`
	Ordinal   int    `json:"ordinal"`
	Available bool   `json:"available"`
}

// Layout is the ordered seat map of an event.
type Layout []Seat

// GenerateLayout maps (totalSeats, availableSeats) to an ordered seat map.
// The result depends only on its inputs.  availableSeats is clamped to
// [0, totalSeats]; a non-positive totalSeats yields an empty layout.
func GenerateLayout(totalSeats, availableSeats int) Layout {
	if totalSeats <= 0 {
		return Layout{}
	}
	if availableSeats < 0 {
		availableSeats = 0
	}
	if availableSeats > totalSeats {
		availableSeats = totalSeats
	}
	seats := make(Layout, 0, totalSeats)
	for ordinal := 1; ordinal <= totalSeats; ordinal++ {
		table := (ordinal-1)/SeatsPerTable + 1
		pos := positions[(ordinal-1)%SeatsPerTable]
		seats = append(seats, Seat{
			ID:        SeatID(table, pos),
			Table:     table,
			Position:  pos,
			Ordinal:   ordinal,
			Available: ordinal <= availableSeats,
		})
	}
	return seats
}

// SeatID formats the identifier of the seat at position pos of table.
func SeatID(table int, pos string) string {
	return fmt.Sprintf("T%d-%s", table, pos)
}

// Lookup returns the seat with the given id.
func (l Layout) Lookup(id string) (Seat, bool) {
	for _, s := range l {
		if s.ID == id {
			return s, true
		}
	}
	return Seat{}, false
}

// Tables groups the layout per table, preserving ordinal order.
func (l Layout) Tables() [][]Seat {
	var out [][]Seat
	for _, s := range l {
		if s.Table > len(out) {
			out = append(out, make([]Seat, 0, SeatsPerTable))
		}
		out[s.Table-1] = append(out[s.Table-1], s)
	}
	return out
}

// AvailableCount returns how many seats of the layout are selectable.
func (l Layout) AvailableCount() int {
	n := 0
	for _, s := range l {
		if s.Available {
			n++
		}
	}
	return n
}
