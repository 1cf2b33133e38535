// Package notify sends the transactional emails that follow a booking
// and a check-in.  Delivery is best-effort: failures are logged and
// reported to admin callers but never undo the booking or check-in.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ResendEndpoint is the Resend send-email API.
const ResendEndpoint = "https://api.resend.com/emails"

// ErrEmailDeliveryFailed wraps every send failure.
var ErrEmailDeliveryFailed = errors.New("email delivery failed")

// Attachment is a file sent with an email.  Content is base64 encoded.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// NewAttachment base64-encodes data.
func NewAttachment(filename string, data []byte) Attachment {
	return Attachment{Filename: filename, Content: base64.StdEncoding.EncodeToString(data)}
}

// Email is one outbound message.
type Email struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Mailer delivers an email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// ResendMailer sends through the Resend HTTP API.  Without an API key it
// logs the message instead, so local setups work with no mail account.
type ResendMailer struct {
	APIKey     string
	From       string
	Endpoint   string
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewResendMailer returns a mailer sending from from.
func NewResendMailer(apiKey, from string, log *slog.Logger) *ResendMailer {
	if log == nil {
		log = slog.Default()
	}
	return &ResendMailer{
		APIKey:     apiKey,
		From:       from,
		Endpoint:   ResendEndpoint,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Log:        log,
	}
}

func (m *ResendMailer) Send(ctx context.Context, e Email) error {
	if e.From == "" {
		e.From = m.From
	}
	if m.APIKey == "" {
		m.Log.Warn("mail: RESEND_API_KEY not set, mock email",
			"to", e.To, "subject", e.Subject, "attachments", len(e.Attachments))
		return nil
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: resend %s: %s", ErrEmailDeliveryFailed, resp.Status, bytes.TrimSpace(msg))
	}
	m.Log.Info("mail: sent", "to", e.To, "subject", e.Subject)
	return nil
}
