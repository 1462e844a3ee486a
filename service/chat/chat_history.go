package chat

import (
	"context"
	"log/slog"
	"time"

	"rag-chatbot-backend/model"

	"github.com/tmc/langchaingo/llms"
	"gorm.io/gorm"
)

const historyLimit = 200

// History 会话消息存储，MySQL落盘 + redis读透缓存
type History struct {
	db    *gorm.DB
	cache *HistoryCache
	limit int
}

func NewHistory(db *gorm.DB, cache *HistoryCache) *History {
	return &History{
		db:    db,
		cache: cache,
		limit: historyLimit,
	}
}

// Messages 加载会话历史，优先选取消息摘要，若为空选取全量消息
func (h *History) Messages(ctx context.Context, sessionID string) ([]llms.ChatMessage, error) {
	messages, err := h.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var msgs []llms.ChatMessage
	for _, msg := range messages {
		content := msg.Content
		if msg.Summary != "" {
			content = msg.Summary
		}

		switch msg.Role {
		case string(llms.ChatMessageTypeAI):
			msgs = append(msgs, llms.AIChatMessage{Content: content})
		case string(llms.ChatMessageTypeHuman):
			msgs = append(msgs, llms.HumanChatMessage{Content: content})
		case string(llms.ChatMessageTypeSystem):
			msgs = append(msgs, llms.SystemChatMessage{Content: content})
		}
	}

	return msgs, nil
}

// AppendExchange 在同一事务内追加一轮(user, assistant)消息，返回两条消息的ID
// 并发查询各自的消息对不会交错，也不会出现只有提问没有回答的悬挂消息
func (h *History) AppendExchange(ctx context.Context, sessionID, userContent, aiContent string) (uint, uint, error) {
	userMsg := model.Message{
		SessionID: sessionID,
		Role:      string(llms.ChatMessageTypeHuman),
		Content:   userContent,
	}
	aiMsg := model.Message{
		SessionID: sessionID,
		Role:      string(llms.ChatMessageTypeAI),
		Content:   aiContent,
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先对会话行取写锁，同一会话的消息对串行落库
		// 否则并发请求的插入可能落在本次消息对的两行之间，读取时交错
		if err := tx.Model(&model.Session{}).
			Where("session_id = ?", sessionID).
			Update("updated_at", time.Now()).Error; err != nil {
			return err
		}

		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}
		return tx.Create(&aiMsg).Error
	})
	if err != nil {
		return 0, 0, err
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, sessionID); err != nil {
			slog.Warn("failed to invalidate history cache", "session_id", sessionID, "err", err)
		}
	}
	return userMsg.ID, aiMsg.ID, nil
}

func (h *History) Clear(ctx context.Context, sessionID string) error {
	if err := h.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.Message{}).Error; err != nil {
		return err
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, sessionID); err != nil {
			slog.Warn("failed to invalidate history cache", "session_id", sessionID, "err", err)
		}
	}
	return nil
}

func (h *History) load(ctx context.Context, sessionID string) ([]model.Message, error) {
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, sessionID)
		if err != nil {
			slog.Warn("failed to read history cache", "session_id", sessionID, "err", err)
		} else if ok {
			return cached, nil
		}
	}

	// 取最近limit条，恢复时间升序后返回，长会话优先保留新消息
	var messages []model.Message
	if err := h.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(h.limit).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, sessionID, messages); err != nil {
			slog.Warn("failed to fill history cache", "session_id", sessionID, "err", err)
		}
	}
	return messages, nil
}
