package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-chatbot-backend/service/vectorindex"

	"github.com/tmc/langchaingo/llms"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeSearcher struct {
	results    []vectorindex.SearchResult
	err        error
	lastFilter vectorindex.SearchFilter
}

func (f *fakeSearcher) Search(ctx context.Context, queryVector []float32, params vectorindex.SearchParams, filter vectorindex.SearchFilter) ([]vectorindex.SearchResult, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeHistory struct {
	messages []llms.ChatMessage
	appended [][2]string
	err      error
}

func (f *fakeHistory) Messages(ctx context.Context, sessionID string) ([]llms.ChatMessage, error) {
	return f.messages, nil
}

func (f *fakeHistory) AppendExchange(ctx context.Context, sessionID, userContent, aiContent string) (uint, uint, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.appended = append(f.appended, [2]string{userContent, aiContent})
	return 101, 102, nil
}

type fakeScope struct {
	folderID *uint
}

func (f *fakeScope) SessionFolderID(ownerID uint, sessionID string) (*uint, error) {
	return f.folderID, nil
}

func newTestOrchestrator(llm llms.Model, searcher *fakeSearcher, history *fakeHistory, scope *fakeScope) *Orchestrator {
	return NewOrchestrator(llm, &fakeEmbedder{vector: []float32{1, 0, 0}}, searcher, history, scope)
}

func TestQueryUsesSessionFolderScope(t *testing.T) {
	searcher := &fakeSearcher{}
	history := &fakeHistory{}
	folderID := uint(5)
	o := newTestOrchestrator(&fakeLLM{content: "回答"}, searcher, history, &fakeScope{folderID: &folderID})

	_, err := o.Query(context.Background(), QueryInput{
		OwnerID:   42,
		SessionID: "s1",
		Query:     "电池保修政策是什么？",
	}, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	expr := searcher.lastFilter.Expr()
	if !strings.Contains(expr, "owner_id == 42") {
		t.Fatalf("filter must scope to the owner, got %q", expr)
	}
	if !strings.Contains(expr, "folder_id == 5") {
		t.Fatalf("filter must scope to the session folder, got %q", expr)
	}
}

func TestQueryExplicitFolderOverridesSessionFolder(t *testing.T) {
	searcher := &fakeSearcher{}
	history := &fakeHistory{}
	sessionFolder := uint(5)
	requested := uint(9)
	o := newTestOrchestrator(&fakeLLM{content: "回答"}, searcher, history, &fakeScope{folderID: &sessionFolder})

	_, err := o.Query(context.Background(), QueryInput{
		OwnerID:   42,
		SessionID: "s1",
		Query:     "电池保修政策是什么？",
		FolderID:  &requested,
	}, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if expr := searcher.lastFilter.Expr(); !strings.Contains(expr, "folder_id == 9") {
		t.Fatalf("explicit folder must override session folder, got %q", expr)
	}
}

func TestQueryNoContextStillAnswersAndPersists(t *testing.T) {
	searcher := &fakeSearcher{}
	history := &fakeHistory{}
	o := newTestOrchestrator(&fakeLLM{content: "文档中没有相关信息。"}, searcher, history, &fakeScope{})

	result, err := o.Query(context.Background(), QueryInput{
		OwnerID:   42,
		SessionID: "s1",
		Query:     "电池保修政策是什么？",
	}, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if len(result.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(result.Sources))
	}
	if len(history.appended) != 1 {
		t.Fatalf("expected one persisted exchange, got %d", len(history.appended))
	}
	if result.UserMessageID != 101 || result.AIMessageID != 102 {
		t.Fatalf("unexpected persisted message ids: %d, %d", result.UserMessageID, result.AIMessageID)
	}
}

func TestQueryGenerationFailurePersistsNothing(t *testing.T) {
	searcher := &fakeSearcher{}
	history := &fakeHistory{}
	o := newTestOrchestrator(&fakeLLM{err: errors.New("rate limited")}, searcher, history, &fakeScope{})

	_, err := o.Query(context.Background(), QueryInput{
		OwnerID:   42,
		SessionID: "s1",
		Query:     "电池保修政策是什么？",
	}, nil)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	if len(history.appended) != 0 {
		t.Fatalf("failed generation must not persist messages, got %d exchanges", len(history.appended))
	}
}

func TestQuerySearchFailureIsRetryable(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("milvus unavailable")}
	history := &fakeHistory{}
	o := newTestOrchestrator(&fakeLLM{content: "回答"}, searcher, history, &fakeScope{})

	_, err := o.Query(context.Background(), QueryInput{
		OwnerID:   42,
		SessionID: "s1",
		Query:     "电池保修政策是什么？",
	}, nil)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestQuerySourcesPreserveRetrievalOrder(t *testing.T) {
	searcher := &fakeSearcher{
		results: []vectorindex.SearchResult{
			{Text: "第一段", DocumentID: 1, ChunkIndex: 3, Title: "manual.pdf"},
			{Text: "第二段", DocumentID: 2, ChunkIndex: 0, Title: "faq.md"},
		},
	}
	history := &fakeHistory{}
	o := newTestOrchestrator(&fakeLLM{content: "回答"}, searcher, history, &fakeScope{})

	result, err := o.Query(context.Background(), QueryInput{
		OwnerID:   42,
		SessionID: "s1",
		Query:     "电池保修政策是什么？",
	}, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(result.Sources))
	}
	if result.Sources[0].DocumentID != 1 || result.Sources[1].DocumentID != 2 {
		t.Fatalf("sources must preserve retrieval order: %+v", result.Sources)
	}
	if result.Sources[0].DocumentTitle != "manual.pdf" {
		t.Fatalf("unexpected source title: %q", result.Sources[0].DocumentTitle)
	}
}

func TestQueryDegradedReformulationStillRuns(t *testing.T) {
	searcher := &fakeSearcher{}
	history := &fakeHistory{
		messages: []llms.ChatMessage{
			llms.HumanChatMessage{Content: "介绍一下 Model 3"},
		},
	}

	// 生成成功但改写阶段遇到空结果，回退原始查询
	llm := &fakeLLM{content: ""}
	o := newTestOrchestrator(llm, searcher, history, &fakeScope{})
	o.llm = &fakeLLM{content: "回答"}

	result, err := o.Query(context.Background(), QueryInput{
		OwnerID:   42,
		SessionID: "s1",
		Query:     "它的续航是多少？",
	}, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if !result.Degraded {
		t.Fatalf("expected a degraded result when reformulation falls back")
	}
	if result.RetrievalQuery != "它的续航是多少？" {
		t.Fatalf("degraded query must fall back to the raw query, got %q", result.RetrievalQuery)
	}
}

func TestRenderQAPromptJoinsChunksInOrder(t *testing.T) {
	prompt, err := renderQAPrompt([]vectorindex.SearchResult{
		{Text: "chunk a"},
		{Text: "chunk b"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	posA := strings.Index(prompt, "chunk a")
	posB := strings.Index(prompt, "chunk b")
	if posA == -1 || posB == -1 || posA > posB {
		t.Fatalf("prompt must contain chunks in retrieval order:\n%s", prompt)
	}
	if !strings.Contains(prompt, "---") {
		t.Fatalf("chunks must be separated:\n%s", prompt)
	}
}

func TestRenderQAPromptEmptyResults(t *testing.T) {
	prompt, err := renderQAPrompt(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(prompt, noContextMarker) {
		t.Fatalf("empty retrieval must use the explicit no-context marker:\n%s", prompt)
	}
}
