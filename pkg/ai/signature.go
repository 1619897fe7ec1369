package ai

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureVerifier checks webhook signatures produced with a shared secret
type SignatureVerifier struct {
	secret string
}

// NewSignatureVerifier creates a verifier. An empty secret disables verification.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Enabled reports whether a secret is configured
func (v *SignatureVerifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Verify returns true when verification is disabled or the signature matches payload
func (v *SignatureVerifier) Verify(payload []byte, signature string) bool {
	if !v.Enabled() {
		return true
	}
	return VerifyHMAC(v.secret, payload, signature)
}

// VerifyHMAC verifies a sha256 HMAC hex signature against payload and secret.
// Both a bare hex digest and the "sha256=<hex>" form are accepted.
func VerifyHMAC(secret string, payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, "sha256=")
	if secret == "" || signature == "" {
		return false
	}
	expected := SignHMAC(secret, payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// SignHMAC returns the lower-case hex sha256 HMAC of payload
func SignHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
