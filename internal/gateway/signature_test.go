package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"
)

func sign(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAccepted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := `{"type":"event_callback"}`
	sig := sign("shhh", ts, body)

	if err := VerifySignature("shhh", ts, body, sig, now); err != nil {
		t.Fatalf("expected valid signature to verify, got %v", err)
	}
}

func TestVerifySignatureRejectsBadSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := `{"type":"event_callback"}`
	sig := sign("wrong-secret", ts, body)

	if err := VerifySignature("shhh", ts, body, sig, now); err == nil {
		t.Fatal("expected signature mismatch error")
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	stale := now.Add(-10 * time.Minute)
	ts := strconv.FormatInt(stale.Unix(), 10)
	body := `{}`
	sig := sign("shhh", ts, body)

	if err := VerifySignature("shhh", ts, body, sig, now); err == nil {
		t.Fatal("expected stale timestamp to be rejected")
	}
}
