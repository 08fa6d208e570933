// Package store implements the two-tier conversation memory described by
// the orchestrator: a durable tier of record and a short-lived hot cache
// used to assemble context without round-tripping to the database on every
// turn.
package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Conversation is the durable record of a single conversational thread.
type Conversation struct {
	ID        string            `json:"id"`
	Owner     *string           `json:"owner,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Message is a single turn in a conversation. Role is one of "user",
// "assistant", or "system".
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	CreatedAt      time.Time      `json:"created_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ContextFormat selects the shape get_context produces.
type ContextFormat string

const (
	// ContextString concatenates "{Role}: {content}\n" lines, oldest first.
	ContextString ContextFormat = "string"
	// ContextDict returns the raw messages, oldest first.
	ContextDict ContextFormat = "dict"
	// ContextCompletion returns {role, content} pairs suitable for a chat
	// completion request, unknown roles mapped to "user".
	ContextCompletion ContextFormat = "completion"
)

// CompletionTurn is a single {role, content} pair in completion context shape.
type CompletionTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationStore is the two-tier contract described in the design: a
// durable tier of record plus a hot cache for fast recent-context reads.
// Implementations must serialize AddMessage per conversation id.
type ConversationStore interface {
	CreateConversation(ctx context.Context, owner *string, metadata map[string]string) (*Conversation, error)
	AddMessage(ctx context.Context, conversationID, role, content string, metadata map[string]any) (*Message, error)
	// GetMessages returns messages newest-first.
	GetMessages(ctx context.Context, conversationID string, limit, skip int, includeMetadata bool) ([]*Message, error)
	GetContext(ctx context.Context, conversationID string, format ContextFormat, maxMessages int) (any, error)
	GetUserConversations(ctx context.Context, owner string, limit, skip int) ([]*Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	UpdateMetadata(ctx context.Context, conversationID string, patch map[string]string) error
	Close()
}

// Config selects and configures the store backend.
type Config struct {
	DurableConn string // e.g. postgres DSN; empty disables the durable tier
	HotConn     string // e.g. redis URL; empty disables the hot tier
	HotTTL      time.Duration
	MigrationsDir string
}

// New selects a backend once at startup: a tiered store over Postgres when
// the durable connection string is present and reachable (with the Redis hot
// tier when that connection also succeeds, durable-only otherwise), or an
// in-memory fallback with identical semantics and process-local lifetime
// otherwise. This selection never happens per-request.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (ConversationStore, error) {
	if cfg.HotTTL <= 0 {
		cfg.HotTTL = 24 * time.Hour
	}

	if cfg.DurableConn == "" {
		logger.Info("conversation store: no DURABLE_STORE_CONN configured, using in-memory fallback")
		return NewMemoryStore(), nil
	}

	durable, err := NewPostgresStore(ctx, cfg.DurableConn, logger)
	if err != nil {
		logger.Warn("conversation store: durable tier unavailable at startup, falling back to in-memory",
			zap.Error(err))
		return NewMemoryStore(), nil
	}
	if cfg.MigrationsDir != "" {
		if err := durable.Migrate(ctx, cfg.MigrationsDir); err != nil {
			durable.Close()
			return nil, fmt.Errorf("migrate durable store: %w", err)
		}
	}

	var hot *RedisHotCache
	if cfg.HotConn != "" {
		hot, err = NewRedisHotCache(cfg.HotConn, cfg.HotTTL, logger)
		if err != nil {
			logger.Warn("conversation store: hot cache unavailable, continuing durable-only",
				zap.Error(err))
			hot = nil
		}
	}

	return NewTieredStore(durable, hot, logger), nil
}
