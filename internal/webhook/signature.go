package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the header Zoho puts the HMAC digest in.
const SignatureHeader = "X-Zoho-Signature"

// ValidSignature reports whether signature is the hex-encoded HMAC-SHA256
// digest of body under secret. The comparison is constant time.
func ValidSignature(body []byte, signature, secret string) bool {
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
