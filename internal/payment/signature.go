// Package payment integrates the external payment processor: it
// creates orders over the processor's REST API and verifies the
// HMAC checksums that accompany payment confirmations and webhook
// notifications.
package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
)

// Signature computes the hex HMAC-SHA256 checksum the processor signs
// confirmations with.  The signed message is "<orderRef>|<paymentID>"
// keyed with the shared webhook secret.
func Signature(secret, orderRef, paymentID string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(orderRef + "|" + paymentID))
    return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the checksum and compares it to the one
// presented, in constant time.
func VerifySignature(secret, orderRef, paymentID, presented string) bool {
    expected := Signature(secret, orderRef, paymentID)
    return hmac.Equal([]byte(expected), []byte(presented))
}
