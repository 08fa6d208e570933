package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sdamache/konveyor/internal/format"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// SlackAdapter implements GatewayAdapter for Slack. It supports two delivery
// paths: Socket Mode for a long-lived process, and the HTTP Events API
// (Routes) for a deployment that receives webhook deliveries directly. Both
// paths normalize into the same InboundMessage and share the same
// deduplicator.
type SlackAdapter struct {
	botToken      string
	appToken      string
	signingSecret string
	appID         string
	selfUserID    string

	client  *slack.Client
	socket  *socketmode.Client
	handler MessageHandler
	threads map[string]string // channelID:userID -> thread_ts for conversation continuity
	dedup   *Deduplicator

	connected   bool
	connectedAt time.Time
	lastError   string

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewSlackAdapter creates a Slack gateway adapter. botToken is the Bot User
// OAuth Token (xoxb-...). appToken, when non-empty, enables Socket Mode
// (xapp-...); signingSecret, when non-empty, enables request verification
// for the HTTP Events API path exposed via Routes. appID is this app's own
// registered app id (Slack's api_app_id), used to self-filter without
// dropping other bots' traffic; it may be empty if unknown, in which case
// the bot_id/app_id self-filter is skipped. dedupWindow bounds how long a
// delivered event is remembered for redelivery detection; <= 0 falls back
// to defaultDedupWindow.
func NewSlackAdapter(botToken, appToken, signingSecret, appID string, dedupWindow time.Duration, logger *zap.Logger) *SlackAdapter {
	client := slack.New(botToken, slack.OptionAppLevelToken(appToken))

	var socket *socketmode.Client
	if appToken != "" {
		socket = socketmode.New(client, socketmode.OptionLog(zap.NewStdLog(logger)))
	}

	return &SlackAdapter{
		botToken:      botToken,
		appToken:      appToken,
		signingSecret: signingSecret,
		appID:         appID,
		client:        client,
		socket:        socket,
		threads:       make(map[string]string),
		dedup:         NewDeduplicatorWithWindow(dedupWindow),
		logger:        logger,
	}
}

func (a *SlackAdapter) Platform() string { return "slack" }

func (a *SlackAdapter) OnMessage(h MessageHandler) { a.handler = h }

// Connect starts the Socket Mode event loop when configured. Adapters
// reachable only through the HTTP Events API (Routes) need no connect step.
func (a *SlackAdapter) Connect(ctx context.Context) error {
	if id, err := a.client.GetUserIdentity(); err == nil {
		a.selfUserID = id.User.ID
	} else if auth, err := a.client.AuthTest(); err == nil {
		a.selfUserID = auth.UserID
	}

	now := time.Now()
	a.mu.Lock()
	a.connected = true
	a.connectedAt = now
	a.mu.Unlock()

	if a.socket == nil {
		a.logger.Info("slack adapter ready for HTTP events API delivery")
		return nil
	}

	go a.handleSocketEvents(ctx)
	go func() {
		if err := a.socket.RunContext(ctx); err != nil {
			a.logger.Error("slack socket mode error", zap.Error(err))
			a.mu.Lock()
			a.lastError = err.Error()
			a.mu.Unlock()
		}
	}()
	a.logger.Info("slack adapter connected via socket mode")
	return nil
}

func (a *SlackAdapter) handleSocketEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-a.socket.Events:
			if !ok {
				return
			}
			if evt.Type == socketmode.EventTypeEventsAPI {
				if eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent); ok {
					a.socket.Ack(*evt.Request)
					a.dispatchEventsAPI(eventsAPI)
				}
			}
		}
	}
}

// Routes returns a chi router exposing the Slack HTTP Events API endpoint,
// for deployments that receive webhook deliveries rather than running
// Socket Mode.
func (a *SlackAdapter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/events", a.handleEventsRequest)
	return r
}

func (a *SlackAdapter) handleEventsRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"cannot read body"}`, http.StatusBadRequest)
		return
	}

	if a.signingSecret != "" {
		ts := r.Header.Get("X-Slack-Request-Timestamp")
		sig := r.Header.Get("X-Slack-Signature")
		if err := VerifySignature(a.signingSecret, ts, string(body), sig, time.Now()); err != nil {
			a.logger.Warn("slack signature verification failed", zap.Error(err))
			http.Error(w, `{"error":"invalid signature"}`, http.StatusUnauthorized)
			return
		}
	}

	var envelope struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	if envelope.Type == slackevents.URLVerification {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"challenge": envelope.Challenge})
		return
	}

	eventsAPI, err := slackevents.ParseEvent(body, slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, `{"error":"cannot parse event"}`, http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	a.dispatchEventsAPI(eventsAPI)
}

func (a *SlackAdapter) dispatchEventsAPI(eventsAPI slackevents.EventsAPIEvent) {
	if eventsAPI.Type != slackevents.CallbackEvent {
		return
	}
	inner, ok := eventsAPI.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	// Dispatch only plain messages and bot_message edits/replays; drop
	// message_changed, message_deleted, thread_broadcast, etc.
	if inner.SubType != "" && inner.SubType != "bot_message" {
		return
	}
	// Self-filter: only drop a bot-authored event when it came from this
	// app's own registered id, so other apps' bot traffic still reaches
	// the handler.
	if inner.BotID != "" && a.appID != "" && eventsAPI.APIAppID == a.appID {
		return
	}
	if a.selfUserID != "" && inner.User == a.selfUserID {
		return
	}

	msg := &InboundMessage{
		Platform:    "slack",
		EventID:     eventsAPI.InnerEvent.Type + ":" + inner.TimeStamp,
		ClientMsgID: inner.ClientMsgID,
		ChannelID:   inner.Channel,
		UserID:      inner.User,
		UserName:    inner.User,
		Content:     inner.Text,
		Timestamp:   time.Now(),
		ReplyTo:     a.threadFor(inner),
	}
	if a.dedup.Seen(msg.Fingerprint()) {
		a.logger.Debug("dropping duplicate slack event", zap.String("fingerprint", msg.Fingerprint()))
		return
	}
	if a.handler != nil {
		a.handler(msg)
	}
}

func (a *SlackAdapter) threadFor(ev *slackevents.MessageEvent) string {
	threadTS := ev.ThreadTimeStamp
	if threadTS == "" {
		threadTS = ev.TimeStamp
	}
	key := fmt.Sprintf("%s:%s", ev.Channel, ev.User)
	a.mu.Lock()
	a.threads[key] = threadTS
	a.mu.Unlock()
	return threadTS
}

// Send posts a message to a Slack channel, using blocks when present.
func (a *SlackAdapter) Send(_ context.Context, msg *OutboundMessage) error {
	opts := []slack.MsgOption{slack.MsgOptionText(msg.Content, false)}
	if msg.ReplyTo != "" {
		opts = append(opts, slack.MsgOptionTS(msg.ReplyTo))
	}
	if len(msg.Blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(toSlackBlocks(msg.Blocks)...))
	}

	_, _, err := a.client.PostMessage(msg.ChannelID, opts...)
	if err != nil {
		a.logger.Error("slack send failed", zap.String("channel", msg.ChannelID), zap.Error(err))
		return fmt.Errorf("slack send: %w", err)
	}
	return nil
}

func toSlackBlocks(blocks []format.Block) []slack.Block {
	out := make([]slack.Block, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "header":
			out = append(out, slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, b.Text.Text, false, false)))
		case "section":
			out = append(out, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, b.Text.Text, false, false), nil, nil))
		case "divider":
			out = append(out, slack.NewDividerBlock())
		}
	}
	return out
}

func (a *SlackAdapter) Status() AdapterStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := AdapterStatus{Platform: "slack", Connected: a.connected, Error: a.lastError}
	if a.connected {
		t := a.connectedAt
		s.ConnectedAt = &t
		mode := "events-api"
		if a.socket != nil {
			mode = "socket-mode"
		}
		s.Details = fmt.Sprintf("mode=%s", mode)
	}
	return s
}

// Close is a no-op; the socket context cancellation handles shutdown.
func (a *SlackAdapter) Close() error {
	return nil
}
