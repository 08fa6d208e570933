package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestIsTransientStatus(t *testing.T) {
	cases := map[int]bool{
		http.StatusOK:                   false,
		http.StatusBadRequest:           false,
		http.StatusUnauthorized:         false,
		http.StatusRequestTimeout:       true,
		http.StatusTooManyRequests:      true,
		http.StatusInternalServerError:  true,
		http.StatusBadGateway:           true,
	}
	for status, want := range cases {
		if got := isTransientStatus(status); got != want {
			t.Errorf("isTransientStatus(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestChatRetriesOnTransientFailure(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(openAIChatResponse{
			ID:    "resp-1",
			Model: "gpt-test",
			Choices: []openAIChoice{
				{Message: Message{Role: "assistant", Content: "ok"}, FinishReason: "stop"},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{ID: "openai", Endpoint: srv.URL}, zap.NewNop())
	resp, err := p.Chat(context.Background(), &ChatRequest{Model: "gpt-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("got content %q, want ok", resp.Content)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
}

func TestChatDoesNotRetryTerminalFailure(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{ID: "openai", Endpoint: srv.URL}, zap.NewNop())
	_, err := p.Chat(context.Background(), &ChatRequest{Model: "gpt-test"})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1 (no retry on terminal error)", attempts)
	}
}
