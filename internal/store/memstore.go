package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore satisfies ConversationStore with identical semantics and
// process-local lifetime, used when the durable tier is absent or
// unreachable at startup. Grounded on the original's in-memory conversation
// manager (sort-by-created_at, the same three context formats).
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]*Message // conversationID -> messages, append order
	convoLocks    map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]*Message),
		convoLocks:    make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.convoLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.convoLocks[id] = l
	}
	return l
}

func (s *MemoryStore) CreateConversation(_ context.Context, owner *string, metadata map[string]string) (*Conversation, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	now := time.Now().UTC()
	c := &Conversation{ID: uuid.New().String(), Owner: owner, CreatedAt: now, UpdatedAt: now, Metadata: metadata}

	s.mu.Lock()
	s.conversations[c.ID] = c
	s.mu.Unlock()
	return c, nil
}

func (s *MemoryStore) AddMessage(_ context.Context, conversationID, role, content string, metadata map[string]any) (*Message, error) {
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}

	m := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
		Metadata:       metadata,
	}
	s.messages[conversationID] = append(s.messages[conversationID], m)
	s.conversations[conversationID].UpdatedAt = m.CreatedAt
	return m, nil
}

func (s *MemoryStore) GetMessages(_ context.Context, conversationID string, limit, skip int, includeMetadata bool) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	all := append([]*Message(nil), s.messages[conversationID]...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	// Newest-first with skip applied from the newest end.
	newestFirst := make([]*Message, len(all))
	for i, m := range all {
		newestFirst[len(all)-1-i] = m
	}
	if skip >= len(newestFirst) {
		return nil, nil
	}
	newestFirst = newestFirst[skip:]
	if len(newestFirst) > limit {
		newestFirst = newestFirst[:limit]
	}

	out := make([]*Message, len(newestFirst))
	for i, m := range newestFirst {
		cp := *m
		if !includeMetadata {
			cp.Metadata = nil
		}
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryStore) GetContext(ctx context.Context, conversationID string, format ContextFormat, maxMessages int) (any, error) {
	return buildContext(ctx, s, conversationID, format, maxMessages)
}

func (s *MemoryStore) GetUserConversations(_ context.Context, owner string, limit, skip int) ([]*Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	var owned []*Conversation
	for _, c := range s.conversations {
		if c.Owner != nil && *c.Owner == owner {
			owned = append(owned, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool { return owned[i].UpdatedAt.After(owned[j].UpdatedAt) })
	if skip >= len(owned) {
		return nil, nil
	}
	owned = owned[skip:]
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, conversationID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}
	return c, nil
}

func (s *MemoryStore) DeleteConversation(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	delete(s.convoLocks, conversationID)
	return nil
}

func (s *MemoryStore) UpdateMetadata(_ context.Context, conversationID string, patch map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	for k, v := range patch {
		c.Metadata[k] = v
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Close() {}
