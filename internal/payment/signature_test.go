package payment

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
    sig := Signature("topsecret", "ord_123", "pay_456")
    assert.True(t, VerifySignature("topsecret", "ord_123", "pay_456", sig))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
    sig := Signature("topsecret", "ord_123", "pay_456")
    assert.False(t, VerifySignature("topsecret", "ord_123", "pay_999", sig))
    assert.False(t, VerifySignature("topsecret", "ord_124", "pay_456", sig))
    assert.False(t, VerifySignature("othersecret", "ord_123", "pay_456", sig))
    assert.False(t, VerifySignature("topsecret", "ord_123", "pay_456", sig+"00"))
}
