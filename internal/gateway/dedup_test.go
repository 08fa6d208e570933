package gateway

import (
	"testing"
	"time"
)

func TestDeduplicatorSeen(t *testing.T) {
	d := NewDeduplicator()

	if d.Seen("a") {
		t.Fatal("first sighting should not be reported as seen")
	}
	if !d.Seen("a") {
		t.Fatal("second sighting should be reported as seen")
	}
	if d.Seen("b") {
		t.Fatal("distinct fingerprint should not collide")
	}
}

func TestDeduplicatorEvictsOldest(t *testing.T) {
	d := NewDeduplicator()
	d.capacity = 3

	d.Seen("1")
	d.Seen("2")
	d.Seen("3")
	d.Seen("4") // evicts "1"

	if d.Seen("1") {
		t.Fatal("expected \"1\" to have been evicted and treated as new")
	}
	if !d.Seen("4") {
		t.Fatal("expected \"4\" to still be tracked")
	}
}

func TestDeduplicatorExpiresOutsideWindow(t *testing.T) {
	d := NewDeduplicatorWithWindow(10 * time.Millisecond)

	if d.Seen("a") {
		t.Fatal("first sighting should not be reported as seen")
	}
	time.Sleep(20 * time.Millisecond)
	if d.Seen("a") {
		t.Fatal("expected \"a\" to have aged out of the window and be treated as new")
	}
}

func TestInboundMessageFingerprintStable(t *testing.T) {
	m := &InboundMessage{EventID: "Ev1", ClientMsgID: "c1", UserID: "u1", Content: "hello"}
	if m.Fingerprint() != m.Fingerprint() {
		t.Fatal("fingerprint should be deterministic for the same message")
	}

	other := &InboundMessage{EventID: "Ev1", ClientMsgID: "c1", UserID: "u1", Content: "goodbye"}
	if m.Fingerprint() == other.Fingerprint() {
		t.Fatal("different content should change the fingerprint")
	}
}
