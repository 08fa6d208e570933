package gateway

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"

	"github.com/sdamache/konveyor/internal/format"
)

// GatewayAdapter defines the interface for platform adapters.
type GatewayAdapter interface {
	Platform() string
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg *OutboundMessage) error
	OnMessage(handler MessageHandler)
	Status() AdapterStatus
	Close() error
}

// MessageHandler processes inbound messages from any platform.
type MessageHandler func(msg *InboundMessage)

// InboundMessage is a normalized message from any platform, carrying enough
// identity to build the event fingerprint used for duplicate-delivery
// detection.
type InboundMessage struct {
	Platform     string    `json:"platform"`
	EventID      string    `json:"event_id,omitempty"`
	ClientMsgID  string    `json:"client_msg_id,omitempty"`
	ChannelID    string    `json:"channel_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	ReplyTo      string    `json:"reply_to,omitempty"`
}

// Fingerprint builds the composite key used to recognize redelivered events:
// event_id:client_msg_id:user:md5(text)[:8]. Either ID may be empty for
// platforms that don't supply one; the text hash still distinguishes
// otherwise-identical deliveries with no ID at all.
func (m *InboundMessage) Fingerprint() string {
	sum := md5.Sum([]byte(m.Content))
	return fmt.Sprintf("%s:%s:%s:%x", m.EventID, m.ClientMsgID, m.UserID, sum[:4])
}

// OutboundMessage is a message sent to a specific platform channel. Blocks
// carries the rich presentation alongside the plain-text fallback; adapters
// that can't render blocks use Content/Text only.
type OutboundMessage struct {
	Platform  string          `json:"platform"`
	ChannelID string          `json:"channel_id"`
	Content   string          `json:"content"`
	Blocks    []format.Block  `json:"blocks,omitempty"`
	ReplyTo   string          `json:"reply_to,omitempty"`
}

// AdapterStatus reports a platform adapter's connection health for /status.
type AdapterStatus struct {
	Platform    string     `json:"platform"`
	Connected   bool       `json:"connected"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Details     string     `json:"details,omitempty"`
}
