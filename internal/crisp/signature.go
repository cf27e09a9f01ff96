package crisp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
)

// Webhook signature headers set by Crisp.
const (
	HeaderTimestamp = "X-Crisp-Request-Timestamp"
	HeaderSignature = "X-Crisp-Signature"
)

// ErrBadSignature is returned when a webhook signature does not verify.
var ErrBadSignature = errors.New("crisp: invalid webhook signature")

// Sign computes the signature Crisp attaches to a webhook body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("[" + timestamp + ";"))
	mac.Write(body)
	mac.Write([]byte("]"))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the signature headers of a webhook request against
// its body. An empty secret skips verification.
func VerifySignature(secret string, h http.Header, body []byte) error {
	if secret == "" {
		return nil
	}
	ts := h.Get(HeaderTimestamp)
	got := h.Get(HeaderSignature)
	if ts == "" || got == "" {
		return ErrBadSignature
	}
	want := Sign(secret, ts, body)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return ErrBadSignature
	}
	return nil
}
