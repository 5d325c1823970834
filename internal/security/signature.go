package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex HMAC-SHA256 of body under secret. Both the outbound
// webhook transport and the inbound ingress use this over the exact raw bytes.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a presented signature in constant time.
func VerifySignature(secret, body []byte, provided string) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(provided))
}
