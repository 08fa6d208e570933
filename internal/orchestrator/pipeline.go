// Package orchestrator drives a single inbound message through the full
// request lifecycle: classify, load conversation context, route to a
// skill, optionally retrieve supporting context, prompt the completion
// client, format the reply, persist both turns, and post the result back
// to the originating platform.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sdamache/konveyor/internal/command"
	"github.com/sdamache/konveyor/internal/format"
	"github.com/sdamache/konveyor/internal/gateway"
	"github.com/sdamache/konveyor/internal/prompt"
	"github.com/sdamache/konveyor/internal/provider"
	"github.com/sdamache/konveyor/internal/rag"
	"github.com/sdamache/konveyor/internal/router"
	"github.com/sdamache/konveyor/internal/skill"
	"github.com/sdamache/konveyor/internal/store"

	"go.uber.org/zap"
)

// defaultDeadline and defaultCallDeadline are the request-scoped and
// per-external-call timeouts when no override is configured.
const (
	defaultDeadline     = 25 * time.Second
	defaultCallDeadline = 10 * time.Second
	historyLimit        = 20
	retrievalTopK       = 5
)

// Sender posts a formatted reply back to the originating platform.
type Sender interface {
	Send(ctx context.Context, msg *gateway.OutboundMessage) error
}

// Retriever queries indexed context for a retrieval-aware skill function.
// *rag.Engine satisfies this; tests substitute a fake to exercise the
// retrieval-results path without a live Qdrant instance.
type Retriever interface {
	Query(ctx context.Context, query string, collections []string, topK int) ([]rag.Result, error)
}

// Pipeline wires every component the orchestrator depends on and exposes a
// single entry point, Handle, used as the gateway's message callback.
type Pipeline struct {
	Store     store.ConversationStore
	Skills    *skill.Manager
	Commands  *command.Registry
	Retrieval Retriever
	Prompts   *prompt.Manager
	Providers *provider.Router
	Sender    Sender
	Logger    *zap.Logger

	Deadline     time.Duration
	CallDeadline time.Duration

	// RetrievalTopK overrides retrievalTopK when positive, normally sourced
	// from RetrievalConfig.TopK.
	RetrievalTopK int
}

// New builds a Pipeline with defaults filled in for any zero-valued
// deadline fields.
func New(store store.ConversationStore, skills *skill.Manager, commands *command.Registry,
	retrieval Retriever, prompts *prompt.Manager, providers *provider.Router,
	sender Sender, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		Store: store, Skills: skills, Commands: commands, Retrieval: retrieval,
		Prompts: prompts, Providers: providers, Sender: sender, Logger: logger,
		Deadline: defaultDeadline, CallDeadline: defaultCallDeadline,
		RetrievalTopK: retrievalTopK,
	}
}

// topK returns the configured retrieval fan-out, falling back to
// retrievalTopK when RetrievalTopK is unset.
func (p *Pipeline) topK() int {
	if p.RetrievalTopK <= 0 {
		return retrievalTopK
	}
	return p.RetrievalTopK
}

// Handle is the gateway.MessageHandler entry point: it gives the request a
// fresh deadline and drives it through the pipeline, logging but never
// propagating a failure since there is no caller to return one to.
func (p *Pipeline) Handle(msg *gateway.InboundMessage) {
	deadline := p.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	if err := p.process(ctx, msg); err != nil {
		p.Logger.Error("pipeline failed", zap.Error(err), zap.String("platform", msg.Platform), zap.String("channel", msg.ChannelID))
	}
}

func (p *Pipeline) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	d := p.CallDeadline
	if d <= 0 {
		d = defaultCallDeadline
	}
	return context.WithTimeout(ctx, d)
}

// process implements the RECEIVED->...->DONE state machine. Each named
// comment marks the transition it performs.
func (p *Pipeline) process(ctx context.Context, msg *gateway.InboundMessage) error {
	// RECEIVED -> CLASSIFIED
	text := strings.TrimSpace(msg.Content)
	channelType := channelTypeOf(msg.ChannelID)

	if strings.HasPrefix(text, "/") {
		return p.handleCommand(ctx, msg, text)
	}

	// CONVERSATION_READY
	conversationID, history, err := p.loadConversation(ctx, msg.UserID, channelType)
	if err != nil {
		// The reply is still produced; finishTurn skips persistence when no
		// conversation id could be obtained.
		p.Logger.Warn("conversation store unavailable, replying without stored history",
			zap.Error(classify(KindConversationStoreFailed, err)))
	}

	// ROUTED
	decision := router.Route(p.Skills, text)

	// RETRIEVED (only for retrieval-aware functions)
	var results []rag.Result
	var retrievalErr error
	if isRetrievalAware(decision) && p.Retrieval != nil {
		query := rag.EnhanceQueryWithContext(text, previousUserQueries(history))
		callCtx, cancel := p.callCtx(ctx)
		results, retrievalErr = p.Retrieval.Query(callCtx, query, []string{rag.CollDocuments}, p.topK())
		cancel()
		if retrievalErr != nil {
			p.Logger.Warn("retrieval unavailable, continuing without it", zap.Error(retrievalErr))
		}
	}

	// Greeting and formatting functions are answered directly, without a
	// completion call.
	switch decision.FunctionName {
	case "greet":
		return p.finishTurn(ctx, msg, conversationID, text, greet(extractGreetingName(text)), nil)
	case "format_as_bullet_list":
		return p.finishTurn(ctx, msg, conversationID, text, formatAsBulletList(text), nil)
	}

	// PROMPTED
	templateName := templateFor(decision)
	contextBlock := rag.FormatContext(results)
	filled := p.Prompts.FormatFor(templateName, contextBlock, text)

	messages := []provider.Message{{Role: "system", Content: filled.System}}
	messages = append(messages, historyToMessages(history)...)
	messages = append(messages, provider.Message{Role: "user", Content: filled.User})

	// COMPLETED
	callCtx, cancel := p.callCtx(ctx)
	resp, err := p.Providers.Route(callCtx, decision.SkillName, &provider.ChatRequest{Messages: messages, Temperature: 0.7})
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return p.reply(ctx, msg, format.FormatError(userMessage(classify(KindDeadlineExceeded, err))))
		}
		return p.reply(ctx, msg, format.FormatError(userMessage(classify(KindCompletionFailed, err))))
	}

	reply := rag.FormatAnswerWithSources(resp.Content, results)

	return p.finishTurn(ctx, msg, conversationID, text, reply, results)
}

func (p *Pipeline) handleCommand(ctx context.Context, msg *gateway.InboundMessage, text string) error {
	cc := &command.CommandContext{
		Platform: msg.Platform, ChannelID: msg.ChannelID, UserID: msg.UserID, UserName: msg.UserName,
		Pipeline: p, Store: p.Store,
	}
	result, err := p.Commands.Dispatch(ctx, text, cc)
	if err != nil {
		return p.reply(ctx, msg, format.FormatError(userMessage(classify(KindUnknown, err))))
	}
	return p.reply(ctx, msg, format.Format(result.Content, true))
}

// loadConversation finds the most recent conversation for a user, creating
// one if none exists, and loads up to historyLimit prior messages in
// completion shape. channelType is stamped onto a freshly created
// conversation's metadata so later commands can tell a DM from a channel
// thread without re-deriving it from the platform.
func (p *Pipeline) loadConversation(ctx context.Context, userID, channelType string) (string, []provider.Message, error) {
	convos, err := p.Store.GetUserConversations(ctx, userID, 1, 0)
	if err != nil {
		return "", nil, fmt.Errorf("load user conversations: %w", err)
	}

	var conversationID string
	if len(convos) > 0 {
		conversationID = convos[0].ID
	} else {
		owner := userID
		convo, err := p.Store.CreateConversation(ctx, &owner, map[string]string{"channel_type": channelType})
		if err != nil {
			return "", nil, fmt.Errorf("create conversation: %w", err)
		}
		conversationID = convo.ID
	}

	raw, err := p.Store.GetContext(ctx, conversationID, store.ContextCompletion, historyLimit)
	if err != nil {
		return conversationID, nil, fmt.Errorf("load context: %w", err)
	}
	turns, _ := raw.([]store.CompletionTurn)
	history := make([]provider.Message, len(turns))
	for i, t := range turns {
		history[i] = provider.Message{Role: t.Role, Content: t.Content}
	}
	return conversationID, history, nil
}

// finishTurn performs PERSISTED and POSTED: it appends the user and
// assistant messages (attaching retrieval citations when present) and
// sends the formatted reply back to the platform.
func (p *Pipeline) finishTurn(ctx context.Context, msg *gateway.InboundMessage, conversationID, userText, replyText string, results []rag.Result) error {
	if conversationID != "" {
		if _, err := p.Store.AddMessage(ctx, conversationID, store.RoleUser, userText, nil); err != nil {
			p.Logger.Warn("persist user message failed", zap.Error(err))
		}
		var meta map[string]any
		if len(results) > 0 {
			meta = map[string]any{"citations": citationSources(results)}
		}
		if _, err := p.Store.AddMessage(ctx, conversationID, store.RoleAssistant, replyText, meta); err != nil {
			p.Logger.Warn("persist assistant message failed", zap.Error(err))
		}
	}

	return p.reply(ctx, msg, format.Format(replyText, true))
}

func (p *Pipeline) reply(ctx context.Context, msg *gateway.InboundMessage, result format.Result) error {
	out := &gateway.OutboundMessage{
		Platform:  msg.Platform,
		ChannelID: msg.ChannelID,
		Content:   result.Text,
		Blocks:    result.Blocks,
		ReplyTo:   msg.ReplyTo,
	}
	if err := p.Sender.Send(ctx, out); err != nil {
		p.Logger.Error("platform post failed", zap.Error(err))
		return classify(KindPlatformPostFailed, err)
	}
	return nil
}

// channelTypeOf applies Slack's convention that direct-message channel ids
// start with "D"; other platforms and channel shapes are treated as
// regular channels.
func channelTypeOf(channelID string) string {
	if strings.HasPrefix(channelID, "D") {
		return "dm"
	}
	return "channel"
}

// isRetrievalAware reports whether the routed function should consult the
// retrieval engine before prompting: question-answering on the
// knowledge/code skills, whether reached by keyword override (run) or by
// question-pattern matching (answer_question).
func isRetrievalAware(d router.Decision) bool {
	if d.SkillName == "chat" {
		return false
	}
	return d.FunctionName == "answer_question" || d.FunctionName == "run"
}

// templateFor maps a routing decision to the named prompt template:
// the code skill gets the code template, anything else retrieval-aware
// gets the knowledge template, and everything else falls back to chat.
func templateFor(d router.Decision) string {
	switch {
	case d.SkillName == "code":
		return "code"
	case isRetrievalAware(d):
		return "knowledge"
	default:
		return "chat"
	}
}

func historyToMessages(history []provider.Message) []provider.Message {
	return history
}

// previousUserQueries extracts user-turn content from completion history,
// most recent last, for follow-up query enhancement.
func previousUserQueries(history []provider.Message) []string {
	var queries []string
	for _, m := range history {
		if m.Role == store.RoleUser {
			queries = append(queries, m.Content)
		}
	}
	return queries
}

func citationSources(results []rag.Result) []string {
	sources := make([]string, len(results))
	for i, r := range results {
		sources[i] = r.Source
	}
	return sources
}

// greet builds the fixed Konveyor welcome greeting for a given name.
func greet(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello, %s! Welcome to Konveyor. How can I help you today?", name)
}

// extractGreetingName pulls the trailing name token out of a greeting
// utterance like "hi Alice", returning "" when none follows the greeting
// word.
func extractGreetingName(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	greetingWords := map[string]bool{"hi": true, "hello": true, "hey": true, "greetings": true}
	if !greetingWords[strings.ToLower(strings.Trim(fields[0], ".,!?"))] {
		return ""
	}
	return strings.Trim(strings.Join(fields[1:], " "), ".,!? ")
}

// formatAsBulletList renders newline-separated text as a bullet list,
// dropping empty lines.
func formatAsBulletList(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, "• "+line)
		}
	}
	return strings.Join(out, "\n")
}
