package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/seating"
)

var (
	// ErrPaymentCancelled is returned when the buyer dismissed the
	// payment UI.  The selection is kept so they can try again.
	ErrPaymentCancelled = errors.New("payment cancelled")
	// ErrPaymentFailed wraps a failure reported by the gateway.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrCheckoutInFlight guards against a second submit while a payment
	// handshake is still open.
	ErrCheckoutInFlight = errors.New("checkout already in progress")
)

// CreateOrderRequest is what the server needs to open a gateway order.
// The server prices it from the event record, never from the client.
type CreateOrderRequest struct {
	EventID  string         `json:"event_id"`
	Seats    []string       `json:"seats"`
	Attendee model.Attendee `json:"attendee"`
}

// CreatedOrder is the gateway order the hosted UI is opened for.
type CreatedOrder struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key"`
}

// VerifyRequest carries the gateway's callback fields to the server.
type VerifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// OrderAPI is the server side of a checkout.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (CreatedOrder, error)
	VerifyAndBook(ctx context.Context, req VerifyRequest) (model.Booking, error)
}

// Context is the state the asynchronous gateway callback needs.  A
// Session creates it once and only ever hands out the same pointer, so
// the callback never reads a stale copy.
type Context struct {
	Event    model.Event
	BuyerID  string
	Attendee model.Attendee
	Seats    []string
	Intent   *OrderIntent
	Order    *CreatedOrder
}

// Session is one buyer's checkout for one event.
type Session struct {
	id      string
	api     OrderAPI
	gateway Gateway
	bus     *Bus
	layout  seating.Layout

	selection *seating.Selection
	theme     string
	brand     string

	mu       sync.Mutex
	state    *Context
	inFlight bool
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithMaxSeats overrides the selection cap.
func WithMaxSeats(n int) SessionOption {
	return func(s *Session) { s.selection = seating.NewSelection(n) }
}

// WithTheme sets the hosted UI accent colour.
func WithTheme(color string) SessionOption {
	return func(s *Session) { s.theme = color }
}

// WithBrand sets the merchant name shown in the hosted UI.
func WithBrand(name string) SessionOption {
	return func(s *Session) { s.brand = name }
}

// NewSession starts a checkout session for ev.
func NewSession(id string, ev model.Event, buyerID string, api OrderAPI, gw Gateway, bus *Bus, opts ...SessionOption) *Session {
	s := &Session{
		id:        id,
		api:       api,
		gateway:   gw,
		bus:       bus,
		layout:    seating.GenerateLayout(ev.TotalSeats, ev.AvailableSeats),
		selection: seating.NewSelection(seating.DefaultMaxSelection),
		theme:     DefaultThemeColor,
		brand:     "Event Tickets",
		state:     &Context{Event: ev, BuyerID: buyerID},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ID returns the session id the gateway reports outcomes under.
func (s *Session) ID() string { return s.id }

// Layout returns the seat layout rendered for this session.
func (s *Session) Layout() seating.Layout { return s.layout }

// Selection exposes the seat selection for rendering and observers.
func (s *Session) Selection() *seating.Selection { return s.selection }

// Toggle picks or unpicks a seat by id, honouring its availability.
func (s *Session) Toggle(seatID string) {
	seat, ok := s.layout.Lookup(seatID)
	if !ok {
		return
	}
	s.selection.Toggle(seatID, seat.Available)
}

// Context returns the session's stable checkout context.
func (s *Session) Context() *Context { return s.state }

// InFlight reports whether a payment handshake is open.  Clients use it
// to warn before the buyer navigates away.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Abandon closes the hosted UI.  A Checkout waiting on it resolves as
// cancelled, so the buyer can try again with the same selection.
func (s *Session) Abandon() {
	s.gateway.Close()
	if s.InFlight() {
		s.bus.Publish(s.id, Cancelled{})
	}
}

// Checkout runs the full handshake for the current selection.  On
// success the selection is cleared and the stored booking is returned.
func (s *Session) Checkout(ctx context.Context, attendee model.Attendee) (model.Booking, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return model.Booking{}, ErrCheckoutInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	// Subscribe before anything, Abandon included, can publish for this
	// session.
	outcomes, unsubscribe := s.bus.Subscribe(s.id)
	defer unsubscribe()

	seats := s.selection.Seats()
	intent, err := BuildOrderIntent(s.state.Event, attendee, seats, s.state.BuyerID)
	if err != nil {
		return model.Booking{}, err
	}

	s.mu.Lock()
	s.state.Attendee = intent.Attendee
	s.state.Seats = intent.Seats
	s.state.Intent = &intent
	s.state.Order = nil
	s.mu.Unlock()

	order, err := s.api.CreateOrder(ctx, CreateOrderRequest{
		EventID:  intent.EventID,
		Seats:    intent.Seats,
		Attendee: intent.Attendee,
	})
	if err != nil {
		return model.Booking{}, err
	}
	s.setOrder(&order)

	if err := s.gateway.Load(ctx); err != nil {
		s.setOrder(nil)
		return model.Booking{}, err
	}
	opts := CheckoutOptions{
		Key:         order.KeyID,
		OrderID:     order.OrderID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		Name:        s.brand,
		Description: intent.EventTitle,
		Prefill: Prefill{
			Name:    intent.Attendee.Name,
			Email:   intent.Attendee.Email,
			Contact: intent.Attendee.Phone,
		},
		ThemeColor: s.theme,
		SessionID:  s.id,
	}
	if err := s.gateway.Open(ctx, opts); err != nil {
		s.setOrder(nil)
		return model.Booking{}, err
	}

	var outcome Outcome
	select {
	case o, ok := <-outcomes:
		if !ok {
			s.setOrder(nil)
			return model.Booking{}, ErrPaymentCancelled
		}
		outcome = o
	case <-ctx.Done():
		s.gateway.Close()
		s.setOrder(nil)
		return model.Booking{}, ctx.Err()
	}

	switch o := outcome.(type) {
	case Cancelled:
		s.setOrder(nil)
		return model.Booking{}, ErrPaymentCancelled
	case Failure:
		s.setOrder(nil)
		return model.Booking{}, fmt.Errorf("%w: %s", ErrPaymentFailed, o.Reason)
	case Success:
		return s.complete(ctx, o)
	default:
		s.setOrder(nil)
		return model.Booking{}, fmt.Errorf("%w: unexpected outcome %T", ErrPaymentFailed, outcome)
	}
}

// complete hands a successful callback to the server.  The order id comes
// from the stable context when the gateway leaves it out.
func (s *Session) complete(ctx context.Context, o Success) (model.Booking, error) {
	s.mu.Lock()
	order := s.state.Order
	s.mu.Unlock()

	orderID := o.OrderID
	if orderID == "" && order != nil {
		orderID = order.OrderID
	}
	booking, err := s.api.VerifyAndBook(ctx, VerifyRequest{
		OrderID:   orderID,
		PaymentID: o.PaymentID,
		Signature: o.Signature,
	})
	s.setOrder(nil)
	if err != nil {
		return model.Booking{}, err
	}
	s.selection.Clear()
	return booking, nil
}

func (s *Session) setOrder(o *CreatedOrder) {
	s.mu.Lock()
	s.state.Order = o
	s.mu.Unlock()
}
