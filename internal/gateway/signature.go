package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
)

// signatureMaxSkew is the widest acceptable gap between a request's
// timestamp header and the moment it's verified, per the platform's replay
// protection guidance.
const signatureMaxSkew = 300 * time.Second

// VerifySignature checks a platform's HMAC-SHA256 request signature. The
// signed base string is "v0:<timestamp>:<body>"; signature is "v0=" followed
// by the hex-encoded HMAC of that string under secret, compared in constant
// time.
// now is passed in explicitly so callers can verify deterministically in
// tests.
func VerifySignature(secret, timestamp, body, signature string, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if math.Abs(skew.Seconds()) > signatureMaxSkew.Seconds() {
		return fmt.Errorf("timestamp outside allowed skew of %s", signatureMaxSkew)
	}

	base := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
