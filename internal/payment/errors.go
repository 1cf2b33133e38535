package payment

import "errors"

var (
	// ErrAmountTooSmall is returned before any network call when an
	// order is below the gateway minimum of 100 minor units.
	ErrAmountTooSmall = errors.New("amount too small")
	// ErrOrderCreationFailed wraps any transport or API failure while
	// creating an order.
	ErrOrderCreationFailed = errors.New("order creation failed")
	// ErrPaymentFetchFailed wraps failures while loading payment details.
	ErrPaymentFetchFailed = errors.New("payment details fetch failed")
	// ErrInvalidSignature means the callback signature did not match.
	ErrInvalidSignature = errors.New("Invalid payment signature")
	// ErrMissingFields is returned when order id, payment id or
	// signature is empty.
	ErrMissingFields = errors.New("missing payment verification fields")
)

// MinAmountMinor is the smallest order the gateway accepts (₹1).
const MinAmountMinor = 100

// Currency is the only currency orders are created in.
const Currency = "INR"

// ToMinor converts a rupee amount into paise.
func ToMinor(amount int64) int64 { return amount * 100 }
