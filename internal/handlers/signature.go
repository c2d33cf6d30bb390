package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the webhook HMAC, hex-encoded with a scheme prefix.
const SignatureHeader = "X-Neynar-Signature"

const signaturePrefix = "sha256="

// VerifySignature checks the webhook HMAC over the raw request body. The
// header must carry the full "sha256=<hex>" form; comparison is constant
// time. A missing or malformed header fails closed.
func VerifySignature(body []byte, header, secret string) bool {
	if secret == "" || !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	want, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// SignBody computes the header value for a body, used by tests and the
// local delivery tool.
func SignBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
