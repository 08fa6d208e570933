package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisHotCache is the hot tier: the most recent messages per conversation,
// held under a TTL that resets on every write, grounded on the original
// storage manager's lpush+expire+lrange pattern.
type RedisHotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisHotCache dials Redis and verifies reachability.
func NewRedisHotCache(url string, ttl time.Duration, logger *zap.Logger) (*RedisHotCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("redis hot cache connected")
	return &RedisHotCache{client: client, ttl: ttl, logger: logger}, nil
}

func key(conversationID string) string {
	return "conv:" + conversationID + ":messages"
}

// Push appends a message to the front of the per-conversation list and
// resets the TTL, atomically via a pipeline.
func (c *RedisHotCache) Push(ctx context.Context, conversationID string, m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key(conversationID), data)
	pipe.Expire(ctx, key(conversationID), c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Range returns up to count messages, newest-first, or an empty slice on a
// cache miss (never an error).
func (c *RedisHotCache) Range(ctx context.Context, conversationID string, count int) ([]*Message, error) {
	raw, err := c.client.LRange(ctx, key(conversationID), 0, int64(count)-1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("lrange: %w", err)
	}
	msgs := make([]*Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

// Len reports how many messages are currently cached for a conversation.
func (c *RedisHotCache) Len(ctx context.Context, conversationID string) (int, error) {
	n, err := c.client.LLen(ctx, key(conversationID)).Result()
	if err != nil {
		return 0, fmt.Errorf("llen: %w", err)
	}
	return int(n), nil
}

// Repopulate rebuilds the cache from a chronological (oldest-first) slice of
// messages, used after a durable-tier read on a cache miss.
func (c *RedisHotCache) Repopulate(ctx context.Context, conversationID string, chronological []*Message) error {
	if len(chronological) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	pipe.Del(ctx, key(conversationID))
	for _, m := range chronological {
		data, err := json.Marshal(m)
		if err != nil {
			continue
		}
		pipe.LPush(ctx, key(conversationID), data)
	}
	pipe.Expire(ctx, key(conversationID), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Delete evicts the cached list for a conversation.
func (c *RedisHotCache) Delete(ctx context.Context, conversationID string) error {
	return c.client.Del(ctx, key(conversationID)).Err()
}

func (c *RedisHotCache) Close() error {
	return c.client.Close()
}
