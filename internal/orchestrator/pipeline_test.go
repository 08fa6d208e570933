package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/sdamache/konveyor/internal/command"
	"github.com/sdamache/konveyor/internal/gateway"
	"github.com/sdamache/konveyor/internal/prompt"
	"github.com/sdamache/konveyor/internal/provider"
	"github.com/sdamache/konveyor/internal/rag"
	"github.com/sdamache/konveyor/internal/skill"
	"github.com/sdamache/konveyor/internal/store"

	"go.uber.org/zap"
)

// fakeRetriever returns a fixed result set regardless of query, so tests can
// exercise the retrieval-aware path without a live Qdrant instance.
type fakeRetriever struct {
	results []rag.Result
}

func (f *fakeRetriever) Query(_ context.Context, _ string, _ []string, _ int) ([]rag.Result, error) {
	return f.results, nil
}

// fakeProvider always returns a fixed response and counts its calls, so
// tests can tell whether a completion was requested without a real backend.
type fakeProvider struct {
	id       string
	response string
	calls    int
}

func (f *fakeProvider) ID() string   { return f.id }
func (f *fakeProvider) Name() string { return f.id }
func (f *fakeProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	f.calls++
	return &provider.ChatResponse{Content: f.response}, nil
}
func (f *fakeProvider) ChatStream(ctx context.Context, req *provider.ChatRequest) (<-chan *provider.StreamChunk, error) {
	return nil, nil
}
func (f *fakeProvider) ListModels(ctx context.Context) ([]provider.Model, error) { return nil, nil }
func (f *fakeProvider) HealthCheck(ctx context.Context) error                    { return nil }

// fakeSender records every outbound message instead of posting it anywhere.
type fakeSender struct {
	sent []*gateway.OutboundMessage
}

func (f *fakeSender) Send(ctx context.Context, msg *gateway.OutboundMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

func newTestPipeline(t *testing.T, response string) (*Pipeline, *fakeSender) {
	t.Helper()

	skills := skill.NewManager()
	skills.Register(&skill.Skill{
		Name:      "chat",
		Functions: []skill.FunctionDescriptor{{Name: "chat"}, {Name: "greet"}, {Name: "format_as_bullet_list"}},
	})
	skills.Register(&skill.Skill{
		Name:      "knowledge",
		Keywords:  []string{"docs", "documentation"},
		Functions: []skill.FunctionDescriptor{{Name: "answer_question"}, {Name: "run"}},
	})

	providers := provider.NewRouter(zap.NewNop())
	fp := &fakeProvider{id: "fake", response: response}
	providers.Register(fp)

	sender := &fakeSender{}

	p := New(
		store.NewMemoryStore(),
		skills,
		command.NewRegistry(),
		nil,
		prompt.NewManager(),
		providers,
		sender,
		zap.NewNop(),
	)
	return p, sender
}

// newTestPipelineWithRetrieval builds a pipeline wired to the "knowledge"
// skill with a fakeRetriever standing in for a live rag.Engine, so the
// retrieval-aware reply path can be exercised without Qdrant.
func newTestPipelineWithRetrieval(t *testing.T, response string, results []rag.Result) (*Pipeline, *fakeSender) {
	t.Helper()
	p, sender := newTestPipeline(t, response)
	p.Retrieval = &fakeRetriever{results: results}
	return p, sender
}

func TestHandleRetrievalAwareReplyKeepsCompletionAndAppendsSources(t *testing.T) {
	p, sender := newTestPipelineWithRetrieval(t, "Run `deploy.sh` from the repo root.", []rag.Result{
		{Content: "Deployment steps.", Source: "Document doc-1, Chunk 0", Score: 0.9},
	})
	p.Handle(&gateway.InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U1", Content: "show me the docs"})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	got := sender.sent[0].Content
	if !strings.Contains(got, "Run `deploy.sh` from the repo root.") {
		t.Fatalf("expected completion response preserved, got %q", got)
	}
	if !strings.Contains(got, "Document doc-1, Chunk 0") {
		t.Fatalf("expected citation appended, got %q", got)
	}
}

func TestHandleGreetingRepliesWithoutCompletion(t *testing.T) {
	p, sender := newTestPipeline(t, "should not be used")
	p.Handle(&gateway.InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U1", Content: "hi Alice"})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	got := sender.sent[0].Content
	want := "Hello, Alice! Welcome to Konveyor. How can I help you today?"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHandleGreetingDefaultsNameWhenAbsent(t *testing.T) {
	p, sender := newTestPipeline(t, "should not be used")
	p.Handle(&gateway.InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U1", Content: "hello"})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	want := "Hello, there! Welcome to Konveyor. How can I help you today?"
	if sender.sent[0].Content != want {
		t.Errorf("got %q, want %q", sender.sent[0].Content, want)
	}
}

func TestHandleBulletListFormatsLines(t *testing.T) {
	p, sender := newTestPipeline(t, "should not be used")
	p.Handle(&gateway.InboundMessage{
		Platform: "slack", ChannelID: "C1", UserID: "U1",
		Content: "format as bullet list\nfirst\nsecond",
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	want := "• format as bullet list\n• first\n• second"
	if sender.sent[0].Content != want {
		t.Errorf("got %q, want %q", sender.sent[0].Content, want)
	}
}

func TestHandleChatUsesCompletionResponse(t *testing.T) {
	p, sender := newTestPipeline(t, "a friendly reply")
	p.Handle(&gateway.InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U1", Content: "tell me a joke"})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	if sender.sent[0].Content != "a friendly reply" {
		t.Errorf("got %q", sender.sent[0].Content)
	}
}

func TestHandlePersistsBothTurns(t *testing.T) {
	p, _ := newTestPipeline(t, "a friendly reply")
	ctx := context.Background()

	p.Handle(&gateway.InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U1", Content: "tell me a joke"})

	convos, err := p.Store.GetUserConversations(ctx, "U1", 1, 0)
	if err != nil || len(convos) != 1 {
		t.Fatalf("expected one conversation, got %v err=%v", convos, err)
	}
	msgs, err := p.Store.GetMessages(ctx, convos[0].ID, 10, 0, false)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != store.RoleAssistant || msgs[1].Role != store.RoleUser {
		t.Errorf("unexpected roles (newest first): %s, %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestHandleSlashCommandDispatches(t *testing.T) {
	p, sender := newTestPipeline(t, "unused")
	p.Commands.Register(&command.Command{
		Name: "ping",
		Handler: func(ctx context.Context, args string, cc *command.CommandContext) (*command.CommandResult, error) {
			return &command.CommandResult{Content: "pong"}, nil
		},
	})

	p.Handle(&gateway.InboundMessage{Platform: "slack", ChannelID: "C1", UserID: "U1", Content: "/ping"})

	if len(sender.sent) != 1 || sender.sent[0].Content != "pong" {
		t.Fatalf("expected pong reply, got %+v", sender.sent)
	}
}

func TestExtractGreetingNameReturnsEmptyWithoutGreeting(t *testing.T) {
	if got := extractGreetingName("just talking"); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
}

func TestChannelTypeOfDetectsSlackDM(t *testing.T) {
	if channelTypeOf("D12345") != "dm" {
		t.Error("expected dm for D-prefixed channel")
	}
	if channelTypeOf("C12345") != "channel" {
		t.Error("expected channel for C-prefixed channel")
	}
}
