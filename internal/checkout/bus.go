package checkout

import "sync"

// Outcome is one terminal result of a hosted checkout.  The three
// variants below are the only implementations.
type Outcome interface {
	outcome()
}

// Success carries the gateway's signed proof of payment.
type Success struct {
	PaymentID string
	OrderID   string
	Signature string
}

// Failure is a gateway-reported payment failure.
type Failure struct {
	Reason string
}

// Cancelled means the buyer dismissed the payment UI.
type Cancelled struct{}

func (Success) outcome()   {}
func (Failure) outcome()   {}
func (Cancelled) outcome() {}

// Bus relays payment outcomes from the gateway callback to the session
// waiting on them.  Subscriptions are keyed by session id.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan Outcome
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan Outcome)}
}

// Subscribe registers a listener for sessionID.  The returned function
// removes the listener and closes its channel; it is safe to call more
// than once.
func (b *Bus) Subscribe(sessionID string) (<-chan Outcome, func()) {
	ch := make(chan Outcome, 4)
	b.mu.Lock()
	b.subs[sessionID] = append(b.subs[sessionID], ch)
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[sessionID]
			for i, c := range list {
				if c == ch {
					list = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(list) == 0 {
				delete(b.subs, sessionID)
			} else {
				b.subs[sessionID] = list
			}
			close(ch)
		})
	}
}

// Publish delivers o to every listener of sessionID and returns how many
// received it.  A listener whose buffer is full is skipped.
func (b *Bus) Publish(sessionID string, o Outcome) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.subs[sessionID] {
		select {
		case ch <- o:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of listeners for sessionID.
func (b *Bus) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}
