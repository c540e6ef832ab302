package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SkewSeconds is the replay window. Both sides of the protocol must use the
// same value or legitimate near-boundary requests get rejected.
const SkewSeconds = 300

// Header names carried alongside the signed JSON body.
const (
	TimestampHeader = "X-Timestamp"
	SignatureHeader = "X-Signature"
)

var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Sign computes hex(HMAC_SHA256(secret, "{timestamp}.{body}")).
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a received timestamp/signature pair against the raw body.
// The timestamp must be within SkewSeconds of now; the signature comparison
// is constant time.
func Verify(secret, timestampHeader, signature string, body []byte, now time.Time) error {
	if timestampHeader == "" {
		return ErrInvalidTimestamp
	}
	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > SkewSeconds {
		return ErrInvalidTimestamp
	}
	if signature == "" {
		return ErrInvalidSignature
	}
	expected := Sign(secret, ts, body)
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}
