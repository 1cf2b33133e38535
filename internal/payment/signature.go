// Package payment talks to the payment gateway and authenticates the
// callbacks the hosted checkout hands back to the buyer.
//
// The gateway signs a successful payment with HMAC-SHA256 over
// orderID + "|" + paymentID using the merchant key secret.  Recomputing
// that signature on the server is the only thing standing between a
// forged success callback and a free ticket, so no booking is written
// unless Verify reports a match.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signature returns the hex encoded HMAC-SHA256 of orderID|paymentID
// keyed with secret.
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the one computed for
// orderID and paymentID.  The comparison runs in constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	expected := Signature(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
