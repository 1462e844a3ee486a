package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rag-chatbot-backend/model"

	"github.com/redis/go-redis/v9"
)

const defaultHistoryTTL = 60 * time.Second

// HistoryCache 会话消息的redis读透缓存，追加消息时失效
type HistoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHistoryCache(client *redis.Client, ttl time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &HistoryCache{client: client, ttl: ttl}
}

func (c *HistoryCache) Get(ctx context.Context, sessionID string) ([]model.Message, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %v", err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %v", err)
	}
	return messages, true, nil
}

func (c *HistoryCache) Set(ctx context.Context, sessionID string, messages []model.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %v", err)
	}
	if err := c.client.Set(ctx, historyKey(sessionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %v", err)
	}
	return nil
}

func (c *HistoryCache) Invalidate(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %v", err)
	}
	return nil
}

func historyKey(sessionID string) string {
	return "chat:history:" + sessionID
}
