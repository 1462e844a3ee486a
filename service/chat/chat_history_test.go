package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rag-chatbot-backend/model"

	"github.com/tmc/langchaingo/llms"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// 共享缓存内存库下多连接并发写会返回table is locked，限制为单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.Session{}, &model.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestSession(t *testing.T, db *gorm.DB, sessionID string) {
	t.Helper()
	if err := db.Create(&model.Session{
		UserID:    1,
		SessionID: sessionID,
		Title:     model.DefaultSessionTitle,
	}).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}
}

func TestAppendExchangeReturnsPersistedIDs(t *testing.T) {
	db := newTestDB(t)
	createTestSession(t, db, "s1")
	h := NewHistory(db, nil)

	userID, aiID, err := h.AppendExchange(context.Background(), "s1", "问题", "回答")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if userID == 0 || aiID == 0 {
		t.Fatalf("expected non-zero message ids, got %d, %d", userID, aiID)
	}

	var count int64
	if err := db.Model(&model.Message{}).Where("session_id = ?", "s1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", count)
	}
}

func TestAppendExchangePairsStayContiguous(t *testing.T) {
	db := newTestDB(t)
	createTestSession(t, db, "s1")
	h := NewHistory(db, nil)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := h.AppendExchange(context.Background(), "s1",
				fmt.Sprintf("question-%d", i),
				fmt.Sprintf("answer-%d", i),
			)
			if err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	messages, err := h.Messages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(messages) != writers*2 {
		t.Fatalf("expected %d messages, got %d", writers*2, len(messages))
	}

	// 每轮问答的(user, assistant)两条消息必须相邻，不被其他消息对插入
	for k := 0; k < len(messages); k += 2 {
		q, a := messages[k], messages[k+1]
		if q.GetType() != llms.ChatMessageTypeHuman || a.GetType() != llms.ChatMessageTypeAI {
			t.Fatalf("message %d: expected (human, ai) pair, got (%s, %s)", k, q.GetType(), a.GetType())
		}
		qID := strings.TrimPrefix(q.GetContent(), "question-")
		aID := strings.TrimPrefix(a.GetContent(), "answer-")
		if qID != aID {
			t.Fatalf("interleaved pair at %d: %q followed by %q", k, q.GetContent(), a.GetContent())
		}
	}
}

func TestLoadKeepsMostRecentMessages(t *testing.T) {
	db := newTestDB(t)
	createTestSession(t, db, "s1")
	h := NewHistory(db, nil)

	const total = historyLimit + 50
	base := time.Now().Add(-time.Duration(total) * time.Second)
	for i := 0; i < total; i++ {
		msg := model.Message{
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			SessionID: "s1",
			Role:      string(llms.ChatMessageTypeHuman),
			Content:   fmt.Sprintf("msg-%d", i),
		}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}

	messages, err := h.Messages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(messages) != historyLimit {
		t.Fatalf("expected %d messages, got %d", historyLimit, len(messages))
	}

	// 超长会话丢弃最旧的消息，保留最近的并保持时间升序
	if got := messages[0].GetContent(); got != fmt.Sprintf("msg-%d", total-historyLimit) {
		t.Fatalf("unexpected oldest kept message: %q", got)
	}
	if got := messages[len(messages)-1].GetContent(); got != fmt.Sprintf("msg-%d", total-1) {
		t.Fatalf("unexpected newest kept message: %q", got)
	}
}
