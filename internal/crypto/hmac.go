// Package crypto provides request signing for service-to-service calls.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

// HMACAuth holds the shared-secret credentials the admin backend uses when
// calling the trading core's internal endpoints.
type HMACAuth struct {
	KeyID  string // identifies this service to the trading core
	Secret string
}

// Headers returns the signed HTTP headers for one request. The signature is
// HMAC-SHA256(secret, timestamp+method+path+body) encoded as base64. The
// trading core rejects requests whose timestamp is outside its replay window.
//
// Returned header keys:
//   - X-Admind-Key
//   - X-Admind-Timestamp
//   - X-Admind-Signature
func (h *HMACAuth) Headers(method, path, body string) map[string]string {
	ts := currentTimestamp()

	message := ts + method + path + body
	sig := hmacSHA256Base64([]byte(h.Secret), message)

	return map[string]string{
		"X-Admind-Key":       h.KeyID,
		"X-Admind-Timestamp": ts,
		"X-Admind-Signature": sig,
	}
}

// Enabled reports whether signing credentials are configured.
func (h *HMACAuth) Enabled() bool {
	return h != nil && h.KeyID != "" && h.Secret != ""
}

func hmacSHA256Base64(secret []byte, message string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func currentTimestamp() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}
