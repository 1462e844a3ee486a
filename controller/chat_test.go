package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"rag-chatbot-backend/config"
	"rag-chatbot-backend/model"
	"rag-chatbot-backend/service/rag"
	"rag-chatbot-backend/service/summarization"
	"rag-chatbot-backend/service/vectorindex"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"
)

type stubLLM struct{}

func (stubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "回答"}}}, nil
}

func (stubLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "回答", nil
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, queryVector []float32, params vectorindex.SearchParams, filter vectorindex.SearchFilter) ([]vectorindex.SearchResult, error) {
	return nil, nil
}

type stubHistory struct{}

func (stubHistory) Messages(ctx context.Context, sessionID string) ([]llms.ChatMessage, error) {
	return nil, nil
}

func (stubHistory) AppendExchange(ctx context.Context, sessionID, userContent, aiContent string) (uint, uint, error) {
	return 1, 2, nil
}

type stubScope struct{}

func (stubScope) SessionFolderID(ownerID uint, sessionID string) (*uint, error) {
	return nil, nil
}

func setupChatTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.Cfg = &config.Config{
		Model: config.ModelConfig{
			BaseURL:   "http://127.0.0.1:1",
			APIKey:    "test",
			ChatModel: "test-model",
		},
	}
	if err := summarization.Init(); err != nil {
		t.Fatalf("init summarizer: %v", err)
	}

	origGetSession := getSession
	getSession = func(userID uint, sessionID string) (*model.Session, error) {
		return &model.Session{UserID: userID, SessionID: sessionID}, nil
	}
	t.Cleanup(func() { getSession = origGetSession })

	rag.OrchestratorInstance = rag.NewOrchestrator(stubLLM{}, stubEmbedder{}, stubSearcher{}, stubHistory{}, stubScope{})

	r := gin.New()
	r.POST("/chat", func(c *gin.Context) {
		c.Set("user_id", uint(1))
	}, Chat)
	return r
}

func doChatRequest(t *testing.T, r *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()
	body := strings.NewReader(`{"session_id":"s1","query":"电池保修政策是什么？"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatStreamsDoneEvent(t *testing.T) {
	r := setupChatTest(t)

	w := doChatRequest(t, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("expected sse content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "done") {
		t.Fatalf("expected a done event, got body:\n%s", w.Body.String())
	}
}

func TestChatDoesNotLeakGoroutines(t *testing.T) {
	r := setupChatTest(t)

	// 预热，排除惰性初始化的goroutine
	doChatRequest(t, r)

	runtime.GC()
	before := runtime.NumGoroutine()

	const requests = 50
	for i := 0; i < requests; i++ {
		w := doChatRequest(t, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	time.Sleep(100 * time.Millisecond)
	runtime.GC()
	after := runtime.NumGoroutine()

	if after-before >= requests {
		t.Fatalf("goroutines leaked per request: before=%d after=%d", before, after)
	}
	if after-before > 10 {
		t.Fatalf("unexpected goroutine growth: before=%d after=%d", before, after)
	}
}
