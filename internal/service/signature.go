package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature returns the hex HMAC-SHA256 of "intentID|paymentID" under
// secret, the value the gateway sends back after a successful checkout.
func ComputeSignature(secret, intentID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureMatches compares in constant time. The comparison is over the hex
// text, so case differences do not match.
func signatureMatches(secret, intentID, paymentID, signature string) bool {
	expected := ComputeSignature(secret, intentID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
