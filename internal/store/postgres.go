package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore is the durable tier of record: conversations and their
// messages, generalized from the teacher's sessions/messages tables
// (agent-bound sessions) to an owner-bound conversation model.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to Postgres and verifies reachability.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("postgres conversation store connected")
	return &PostgresStore{db: pool, logger: logger}, nil
}

// Migrate reads and executes all .up.sql files from the migrations
// directory, in filename order.
func (s *PostgresStore) Migrate(ctx context.Context, migrationsDir string) error {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(migrationsDir, f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		s.logger.Info("migration applied", zap.String("file", f))
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) CreateConversation(ctx context.Context, owner *string, metadata map[string]string) (*Conversation, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	c := &Conversation{
		ID:        uuid.New().String(),
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO conversations (id, owner, created_at, updated_at, metadata)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Owner, c.CreatedAt, c.UpdatedAt, metaJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, conversationID, role, content string, metadata map[string]any) (*Message, error) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal message metadata: %w", err)
	}

	m := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
		Metadata:       metadata,
	}

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO messages (id, conversation_id, role, content, created_at, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.Role, m.Content, m.CreatedAt, metaJSON,
	)
	batch.Queue(`UPDATE conversations SET updated_at = $1 WHERE id = $2`, m.CreatedAt, conversationID)

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return nil, fmt.Errorf("add message: %w", err)
		}
	}
	return m, nil
}

func (s *PostgresStore) GetMessages(ctx context.Context, conversationID string, limit, skip int, includeMetadata bool) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, conversation_id, role, content, created_at, metadata
		 FROM messages WHERE conversation_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		conversationID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		var metaJSON []byte
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if includeMetadata && len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &m.Metadata)
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

func (s *PostgresStore) GetContext(ctx context.Context, conversationID string, format ContextFormat, maxMessages int) (any, error) {
	return buildContext(ctx, s, conversationID, format, maxMessages)
}

func (s *PostgresStore) GetUserConversations(ctx context.Context, owner string, limit, skip int) ([]*Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, owner, created_at, updated_at, metadata
		 FROM conversations WHERE owner = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		owner, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("query user conversations: %w", err)
	}
	defer rows.Close()

	var convos []*Conversation
	for rows.Next() {
		var c Conversation
		var metaJSON []byte
		if err := rows.Scan(&c.ID, &c.Owner, &c.CreatedAt, &c.UpdatedAt, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &c.Metadata)
		}
		convos = append(convos, &c)
	}
	return convos, rows.Err()
}

func (s *PostgresStore) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var c Conversation
	var metaJSON []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, owner, created_at, updated_at, metadata FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&c.ID, &c.Owner, &c.CreatedAt, &c.UpdatedAt, &metaJSON)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &c.Metadata)
	}
	return &c, nil
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, conversationID string) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM messages WHERE conversation_id = $1`, conversationID)
	batch.Queue(`DELETE FROM conversations WHERE id = $1`, conversationID)
	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) UpdateMetadata(ctx context.Context, conversationID string, patch map[string]string) error {
	var existing []byte
	err := s.db.QueryRow(ctx, `SELECT metadata FROM conversations WHERE id = $1`, conversationID).Scan(&existing)
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	merged := map[string]string{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &merged)
	}
	for k, v := range patch {
		merged[k] = v
	}
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`UPDATE conversations SET metadata = $1, updated_at = $2 WHERE id = $3`,
		mergedJSON, time.Now().UTC(), conversationID,
	)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}

// durableReader is implemented by any tier capable of serving GetMessages,
// used to share buildContext between PostgresStore and TieredStore.
type durableReader interface {
	GetMessages(ctx context.Context, conversationID string, limit, skip int, includeMetadata bool) ([]*Message, error)
}

// buildContext assembles the oldest-first context shapes (§4.3) on top of
// any reader's newest-first GetMessages.
func buildContext(ctx context.Context, r durableReader, conversationID string, format ContextFormat, maxMessages int) (any, error) {
	if maxMessages <= 0 {
		maxMessages = 20
	}
	msgs, err := r.GetMessages(ctx, conversationID, maxMessages, 0, true)
	if err != nil {
		return nil, err
	}
	// msgs is newest-first; reverse to oldest-first for context projection.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	switch format {
	case ContextDict:
		out := make([]map[string]any, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, map[string]any{
				"id":              m.ID,
				"conversation_id": m.ConversationID,
				"role":            m.Role,
				"content":         m.Content,
				"created_at":      m.CreatedAt,
				"metadata":        m.Metadata,
			})
		}
		return out, nil
	case ContextCompletion:
		out := make([]CompletionTurn, 0, len(msgs))
		for _, m := range msgs {
			role := m.Role
			switch role {
			case RoleUser, RoleAssistant, RoleSystem:
			default:
				role = RoleUser
			}
			out = append(out, CompletionTurn{Role: role, Content: m.Content})
		}
		return out, nil
	case ContextString:
		fallthrough
	default:
		var b strings.Builder
		for _, m := range msgs {
			fmt.Fprintf(&b, "%s: %s\n", capitalize(m.Role), m.Content)
		}
		return b.String(), nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
