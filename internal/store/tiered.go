package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// TieredStore combines the durable Postgres tier with the Redis hot cache
// per the two-tier contract: durable is authoritative, hot serves fast
// recent-context reads and is repopulated on miss.
type TieredStore struct {
	durable *PostgresStore
	hot     *RedisHotCache
	logger  *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewTieredStore builds a TieredStore. hot may be nil, in which case every
// read falls through to the durable tier.
func NewTieredStore(durable *PostgresStore, hot *RedisHotCache, logger *zap.Logger) *TieredStore {
	return &TieredStore{durable: durable, hot: hot, logger: logger, locks: make(map[string]*sync.Mutex)}
}

func (s *TieredStore) convoLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *TieredStore) CreateConversation(ctx context.Context, owner *string, metadata map[string]string) (*Conversation, error) {
	return s.durable.CreateConversation(ctx, owner, metadata)
}

// AddMessage serializes per-conversation so that context snapshots observed
// by subsequent turns always include all prior messages of the same turn.
func (s *TieredStore) AddMessage(ctx context.Context, conversationID, role, content string, metadata map[string]any) (*Message, error) {
	lock := s.convoLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.durable.AddMessage(ctx, conversationID, role, content, metadata)
	if err != nil {
		return nil, err
	}
	if s.hot != nil {
		if err := s.hot.Push(ctx, conversationID, m); err != nil {
			s.logger.Warn("hot cache push failed, continuing durable-only", zap.Error(err))
		}
	}
	return m, nil
}

// GetMessages prefers the hot tier when skip=0 and it holds at least limit
// entries; otherwise reads the durable tier and repopulates the hot tier in
// chronological order on a miss that produced results.
func (s *TieredStore) GetMessages(ctx context.Context, conversationID string, limit, skip int, includeMetadata bool) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if s.hot != nil && skip == 0 {
		n, err := s.hot.Len(ctx, conversationID)
		if err == nil && n >= limit {
			cached, err := s.hot.Range(ctx, conversationID, limit)
			if err == nil && len(cached) > 0 {
				return cached, nil
			}
		}
	}

	msgs, err := s.durable.GetMessages(ctx, conversationID, limit, skip, includeMetadata)
	if err != nil {
		return nil, err
	}
	if s.hot != nil && skip == 0 && len(msgs) > 0 {
		chronological := make([]*Message, len(msgs))
		for i, m := range msgs {
			chronological[len(msgs)-1-i] = m
		}
		if err := s.hot.Repopulate(ctx, conversationID, chronological); err != nil {
			s.logger.Warn("hot cache repopulate failed", zap.Error(err))
		}
	}
	return msgs, nil
}

func (s *TieredStore) GetContext(ctx context.Context, conversationID string, format ContextFormat, maxMessages int) (any, error) {
	return buildContext(ctx, s, conversationID, format, maxMessages)
}

func (s *TieredStore) GetUserConversations(ctx context.Context, owner string, limit, skip int) ([]*Conversation, error) {
	return s.durable.GetUserConversations(ctx, owner, limit, skip)
}

func (s *TieredStore) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	return s.durable.GetConversation(ctx, conversationID)
}

func (s *TieredStore) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := s.durable.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}
	if s.hot != nil {
		if err := s.hot.Delete(ctx, conversationID); err != nil {
			s.logger.Warn("hot cache delete failed", zap.Error(err))
		}
	}
	return nil
}

func (s *TieredStore) UpdateMetadata(ctx context.Context, conversationID string, patch map[string]string) error {
	return s.durable.UpdateMetadata(ctx, conversationID, patch)
}

func (s *TieredStore) Close() {
	s.durable.Close()
	if s.hot != nil {
		_ = s.hot.Close()
	}
}
