package seating

import "sync"

// DefaultMaxSelection caps how many seats one checkout may pick.
const DefaultMaxSelection = 4

// Selection is the ordered set of seats picked in one checkout session.
// It is never persisted; a booking copies it once payment is verified.
type Selection struct {
	mu       sync.Mutex
	max      int
	seats    []string
	onChange func([]string)
}

// NewSelection returns an empty selection capped at max seats.  A
// non-positive max uses DefaultMaxSelection.
func NewSelection(max int) *Selection {
	if max <= 0 {
		max = DefaultMaxSelection
	}
	return &Selection{max: max}
}

// OnChange registers fn to receive the ordered seat ids after every
// mutation.  Only one observer is kept; a later call replaces it.
func (s *Selection) OnChange(fn func([]string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Toggle adds or removes seatID.  Unavailable seats are ignored.  A
// selected seat is always removable, even at the cap; adding past the cap
// is silently ignored.
func (s *Selection) Toggle(seatID string, available bool) {
	if !available {
		return
	}
	s.mu.Lock()
	if i := s.index(seatID); i >= 0 {
		s.seats = append(s.seats[:i], s.seats[i+1:]...)
	} else if len(s.seats) < s.max {
		s.seats = append(s.seats, seatID)
	} else {
		s.mu.Unlock()
		return
	}
	snapshot, fn := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// Clear empties the selection and notifies the observer.
func (s *Selection) Clear() {
	s.mu.Lock()
	s.seats = nil
	snapshot, fn := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// Seats returns a copy of the selected seat ids in pick order.
func (s *Selection) Seats() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.seats))
	copy(out, s.seats)
	return out
}

// Len returns the number of selected seats.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seats)
}

// Contains reports whether seatID is selected.
func (s *Selection) Contains(seatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(seatID) >= 0
}

// Max returns the selection cap.
func (s *Selection) Max() int { return s.max }

func (s *Selection) index(seatID string) int {
	for i, id := range s.seats {
		if id == seatID {
			return i
		}
	}
	return -1
}

func (s *Selection) snapshotLocked() ([]string, func([]string)) {
	out := make([]string, len(s.seats))
	copy(out, s.seats)
	return out, s.onChange
}
