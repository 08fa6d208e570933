package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordAdapter implements GatewayAdapter for Discord using the bot gateway.
type DiscordAdapter struct {
	token   string
	session *discordgo.Session
	handler MessageHandler
	dedup   *Deduplicator

	connected   bool
	connectedAt time.Time
	lastError   string

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewDiscordAdapter creates a Discord gateway adapter. dedupWindow bounds
// how long a delivered event is remembered for redelivery detection; <= 0
// falls back to defaultDedupWindow.
func NewDiscordAdapter(token string, dedupWindow time.Duration, logger *zap.Logger) *DiscordAdapter {
	return &DiscordAdapter{
		token:  token,
		dedup:  NewDeduplicatorWithWindow(dedupWindow),
		logger: logger,
	}
}

func (a *DiscordAdapter) Platform() string { return "discord" }

func (a *DiscordAdapter) OnMessage(h MessageHandler) { a.handler = h }

// Connect opens the Discord gateway websocket and verifies guild membership.
func (a *DiscordAdapter) Connect(_ context.Context) error {
	session, err := discordgo.New("Bot " + a.token)
	if err != nil {
		a.mu.Lock()
		a.lastError = fmt.Sprintf("session create: %v", err)
		a.mu.Unlock()
		return fmt.Errorf("discord session: %w", err)
	}
	a.session = session

	a.session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	a.session.AddHandler(a.onMessageCreate)

	if err := a.session.Open(); err != nil {
		a.mu.Lock()
		a.lastError = fmt.Sprintf("open failed: %v", err)
		a.connected = false
		a.mu.Unlock()
		return fmt.Errorf("discord open: %w", err)
	}

	now := time.Now()
	a.mu.Lock()
	a.connected = true
	a.connectedAt = now
	a.lastError = ""
	a.mu.Unlock()

	guildCount := len(a.session.State.Guilds)
	if guildCount == 0 {
		a.logger.Warn("discord bot not added to any server — invite it first")
	}

	a.logger.Info("discord adapter connected",
		zap.String("user", a.session.State.User.Username),
		zap.Int("guilds", guildCount))
	return nil
}

// onMessageCreate handles incoming Discord messages.
func (a *DiscordAdapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if a.handler == nil {
		return
	}

	msg := &InboundMessage{
		Platform:    "discord",
		EventID:     m.ID,
		ClientMsgID: m.ID,
		ChannelID:   m.ChannelID,
		UserID:      m.Author.ID,
		UserName:    m.Author.Username,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
		ReplyTo:     m.ChannelID,
	}
	if a.dedup.Seen(msg.Fingerprint()) {
		return
	}
	a.handler(msg)
}

// Send posts a message to a Discord channel. Only msg.Content is sent;
// msg.Blocks are not rendered.
func (a *DiscordAdapter) Send(_ context.Context, msg *OutboundMessage) error {
	content := msg.Content
	if _, err := a.session.ChannelMessageSend(msg.ChannelID, content); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Close shuts down the Discord session.
func (a *DiscordAdapter) Close() error {
	if a.session != nil {
		return a.session.Close()
	}
	return nil
}

func (a *DiscordAdapter) Status() AdapterStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := AdapterStatus{
		Platform:  "discord",
		Connected: a.connected,
		Error:     a.lastError,
	}
	if a.connected {
		t := a.connectedAt
		s.ConnectedAt = &t
		guildCount := 0
		if a.session != nil && a.session.State != nil {
			guildCount = len(a.session.State.Guilds)
		}
		s.Details = fmt.Sprintf("bot=%s, guilds=%d", a.session.State.User.Username, guildCount)
	}
	return s
}
