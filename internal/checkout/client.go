package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/payment"
)

// APIError is a non-2xx answer from the ticketing server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Is maps server error codes onto the payment sentinels so callers can
// match them the same way on either side of the wire.
func (e *APIError) Is(target error) bool {
	switch e.Code {
	case "amount_too_small":
		return target == payment.ErrAmountTooSmall
	case "order_creation_failed":
		return target == payment.ErrOrderCreationFailed
	case "invalid_signature":
		return target == payment.ErrInvalidSignature
	}
	return false
}

// HTTPClient calls the ticketing server's checkout endpoints.
type HTTPClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewHTTPClient returns a client authenticated with a bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreatedOrder, error) {
	var out CreatedOrder
	if err := c.post(ctx, "/v1/checkout/orders", req, &out); err != nil {
		return CreatedOrder{}, err
	}
	return out, nil
}

func (c *HTTPClient) VerifyAndBook(ctx context.Context, req VerifyRequest) (model.Booking, error) {
	var out struct {
		Booking model.Booking `json:"booking"`
	}
	if err := c.post(ctx, "/v1/checkout/verify", req, &out); err != nil {
		return model.Booking{}, err
	}
	return out.Booking, nil
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
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
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		if len(eb.Fields) > 0 {
			return FieldErrors(eb.Fields)
		}
		msg := eb.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: eb.Code, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Join(errors.New("decode response"), err)
	}
	return nil
}
