package checkout

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// DefaultThemeColor is the accent colour passed to the hosted UI.
const DefaultThemeColor = "#7C3AED"

// Prefill seeds the hosted form with the attendee's contact details.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// CheckoutOptions configures one opening of the hosted payment UI.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	OrderID     string  `json:"order_id"`
	AmountMinor int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
	ThemeColor  string  `json:"theme_color"`
	SessionID   string  `json:"session_id"`
}

// Gateway is the hosted payment UI.  Open returns once the UI is shown;
// the result arrives later as an Outcome on the Bus under
// opts.SessionID.  Close dismisses the UI without reporting an outcome.
type Gateway interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, opts CheckoutOptions) error
	Close()
}

// Opener shows the hosted UI for opts.
type Opener func(ctx context.Context, opts CheckoutOptions) error

// HostedGateway combines a ScriptLoader with an Opener.  It is the
// production Gateway for clients that embed the gateway's hosted page.
type HostedGateway struct {
	loader *ScriptLoader
	open   Opener
	close  func()
}

// NewHostedGateway returns a Gateway.  closeFn may be nil.
func NewHostedGateway(loader *ScriptLoader, open Opener, closeFn func()) *HostedGateway {
	return &HostedGateway{loader: loader, open: open, close: closeFn}
}

func (g *HostedGateway) Load(ctx context.Context) error { return g.loader.Load(ctx) }

func (g *HostedGateway) Open(ctx context.Context, opts CheckoutOptions) error {
	if !g.loader.Loaded() {
		return ErrGatewayUnavailable
	}
	return g.open(ctx, opts)
}

func (g *HostedGateway) Close() {
	if g.close != nil {
		g.close()
	}
}

// Relay turns the hosted page's form post into a Bus outcome.  The page
// posts to /<prefix>?session=<id> with either the three razorpay_* fields,
// an error[description] field, or dismissed=1.
type Relay struct {
	Bus *Bus
}

var errUnknownSession = errors.New("no checkout waiting for this session")

func (r Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := req.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	session := strings.TrimSpace(req.URL.Query().Get("session"))
	if session == "" {
		http.Error(w, "session required", http.StatusBadRequest)
		return
	}
	outcome := outcomeFromForm(req)
	if r.Bus.Publish(session, outcome) == 0 {
		http.Error(w, errUnknownSession.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func outcomeFromForm(req *http.Request) Outcome {
	if req.PostFormValue("dismissed") == "1" {
		return Cancelled{}
	}
	paymentID := req.PostFormValue("razorpay_payment_id")
	orderID := req.PostFormValue("razorpay_order_id")
	signature := req.PostFormValue("razorpay_signature")
	if paymentID != "" && signature != "" {
		return Success{PaymentID: paymentID, OrderID: orderID, Signature: signature}
	}
	reason := req.PostFormValue("error[description]")
	if reason == "" {
		reason = "payment was not completed"
	}
	return Failure{Reason: reason}
}
