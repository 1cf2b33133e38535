package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the gateway's public REST endpoint.
const DefaultBaseURL = "https://api.razorpay.com/v1"

// OrderRequest is the body of an order creation call.  Amount is in
// minor units (paise).
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the gateway side payment intent.  It is single use: after a
// failed payment a new order has to be created.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Card holds the card specific fields of a payment.
type Card struct {
	Last4   string `json:"last4,omitempty"`
	Network string `json:"network,omitempty"`
	Type    string `json:"type,omitempty"`
	Issuer  string `json:"issuer,omitempty"`
}

// PaymentDetails is the authoritative view of a payment as reported by
// the gateway.  It is copied onto the booking record.
type PaymentDetails struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
	Email    string `json:"email,omitempty"`
	Contact  string `json:"contact,omitempty"`
	Bank     string `json:"bank,omitempty"`
	Wallet   string `json:"wallet,omitempty"`
	VPA      string `json:"vpa,omitempty"`
	Card     *Card  `json:"card,omitempty"`
	Captured bool   `json:"captured"`
}

// Client is a minimal REST client for the gateway.  It authenticates
// with HTTP basic auth using the merchant key id and secret.
type Client struct {
	BaseURL    string
	KeyID      string
	KeySecret  string
	HTTPClient *http.Client
}

// NewClient returns a Client for the given credentials.  An empty baseURL
// uses DefaultBaseURL.
func NewClient(baseURL, keyID, keySecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		KeyID:      keyID,
		KeySecret:  keySecret,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder creates a gateway order.  Amounts under MinAmountMinor are
// rejected with ErrAmountTooSmall without contacting the gateway; every
// other failure is wrapped in ErrOrderCreationFailed.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if req.Amount < MinAmountMinor {
		return Order{}, ErrAmountTooSmall
	}
	if req.Currency == "" {
		req.Currency = Currency
	}
	var out Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}
	if out.ID == "" {
		return Order{}, fmt.Errorf("%w: empty order id", ErrOrderCreationFailed)
	}
	return out, nil
}

// FetchPayment loads the payment with the given id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	var out PaymentDetails
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &out); err != nil {
		return PaymentDetails{}, fmt.Errorf("%w: %v", ErrPaymentFetchFailed, err)
	}
	return out, nil
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("gateway %s: %s", resp.Status, apiErr.Error.Description)
		}
		return fmt.Errorf("gateway %s", resp.Status)
	}
	return json.Unmarshal(raw, out)
}
