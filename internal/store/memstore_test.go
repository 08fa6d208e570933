package store

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryStoreAddAndGetMessages(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c, err := s.CreateConversation(ctx, nil, nil)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	for _, turn := range []struct{ role, content string }{
		{RoleUser, "hello"},
		{RoleAssistant, "hi there"},
		{RoleUser, "how are you"},
	} {
		if _, err := s.AddMessage(ctx, c.ID, turn.role, turn.content, nil); err != nil {
			t.Fatalf("add message: %v", err)
		}
	}

	msgs, err := s.GetMessages(ctx, c.ID, 10, 0, true)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Content != "how are you" {
		t.Errorf("expected newest-first, got %q first", msgs[0].Content)
	}
}

func TestMemoryStoreGetContextString(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c, _ := s.CreateConversation(ctx, nil, nil)
	s.AddMessage(ctx, c.ID, RoleUser, "first", nil)
	s.AddMessage(ctx, c.ID, RoleAssistant, "second", nil)

	got, err := s.GetContext(ctx, c.ID, ContextString, 20)
	if err != nil {
		t.Fatalf("get context: %v", err)
	}
	text := got.(string)
	if !strings.HasSuffix(strings.TrimRight(text, "\n"), "Assistant: second") {
		t.Errorf("expected context to end with last message, got %q", text)
	}
	if !strings.Contains(text, "User: first") {
		t.Errorf("expected context to contain first message, got %q", text)
	}
}

func TestMemoryStoreGetContextCompletion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c, _ := s.CreateConversation(ctx, nil, nil)
	s.AddMessage(ctx, c.ID, "system", "be helpful", nil)
	s.AddMessage(ctx, c.ID, RoleUser, "hi", nil)
	s.AddMessage(ctx, c.ID, "unexpected-role", "huh", nil)

	got, err := s.GetContext(ctx, c.ID, ContextCompletion, 20)
	if err != nil {
		t.Fatalf("get context: %v", err)
	}
	turns := got.([]CompletionTurn)
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	if turns[2].Role != RoleUser {
		t.Errorf("expected unknown role mapped to user, got %q", turns[2].Role)
	}
}

func TestMemoryStoreDeleteConversationIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c, _ := s.CreateConversation(ctx, nil, nil)
	s.AddMessage(ctx, c.ID, RoleUser, "hi", nil)

	if err := s.DeleteConversation(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteConversation(ctx, c.ID); err != nil {
		t.Fatalf("second delete should be idempotent, got: %v", err)
	}
	msgs, err := s.GetMessages(ctx, c.ID, 10, 0, true)
	if err != nil {
		t.Fatalf("get messages after delete: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages after delete, got %d", len(msgs))
	}
}
