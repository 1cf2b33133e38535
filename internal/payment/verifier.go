package payment

import (
	"context"
	"strings"
)

// DetailFetcher loads authoritative payment details from the gateway.
type DetailFetcher interface {
	FetchPayment(ctx context.Context, paymentID string) (PaymentDetails, error)
}

// Verification is the outcome of a callback check.
type Verification struct {
	Verified bool
	Details  *PaymentDetails
}

// Verifier authenticates gateway callbacks with the merchant secret and
// attaches the gateway's view of the payment.
type Verifier struct {
	secret  string
	fetcher DetailFetcher
}

// NewVerifier returns a Verifier keyed with secret.
func NewVerifier(secret string, fetcher DetailFetcher) *Verifier {
	return &Verifier{secret: secret, fetcher: fetcher}
}

// Verify checks signature against orderID and paymentID.  A mismatch
// returns Verified=false together with ErrInvalidSignature.  On a match
// the payment details are fetched; a fetch failure is returned as an
// error and the caller must not write a booking.
func (v *Verifier) Verify(ctx context.Context, orderID, paymentID, signature string) (Verification, error) {
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	signature = strings.TrimSpace(signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return Verification{}, ErrMissingFields
	}
	if !VerifySignature(orderID, paymentID, signature, v.secret) {
		return Verification{Verified: false}, ErrInvalidSignature
	}
	details, err := v.fetcher.FetchPayment(ctx, paymentID)
	if err != nil {
		return Verification{}, err
	}
	return Verification{Verified: true, Details: &details}, nil
}
