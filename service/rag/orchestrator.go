package rag

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"rag-chatbot-backend/service/vectorindex"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

//go:embed prompts/qa_system.txt
var qaSystemPrompt string

// 检索无结果时传给生成步骤的显式占位，区别于静默返回空上下文
const noContextMarker = "No relevant context was found in the user's documents."

// ChunkSearcher 带元数据过滤的向量检索能力
type ChunkSearcher interface {
	Search(ctx context.Context, queryVector []float32, params vectorindex.SearchParams, filter vectorindex.SearchFilter) ([]vectorindex.SearchResult, error)
}

// HistoryStore 会话消息的读取与成对追加
type HistoryStore interface {
	Messages(ctx context.Context, sessionID string) ([]llms.ChatMessage, error)

	// AppendExchange 原子地追加一轮(user, assistant)消息，两条消息要么都可见要么都不可见
	AppendExchange(ctx context.Context, sessionID, userContent, aiContent string) (userMsgID, aiMsgID uint, err error)
}

// SessionScopeReader 读取会话当前绑定的目录
type SessionScopeReader interface {
	SessionFolderID(ownerID uint, sessionID string) (*uint, error)
}

type QueryInput struct {
	OwnerID   uint
	SessionID string
	Query     string

	// 请求显式指定的检索目录，覆盖会话绑定的目录
	FolderID *uint
}

// Source 回答引用的来源片段
type Source struct {
	DocumentID    uint
	DocumentTitle string
	ChunkIndex    int
	Content       string
}

type QueryResult struct {
	Answer string

	// 按检索相关性排序
	Sources []Source

	// 实际用于检索的查询
	RetrievalQuery string

	Degraded       bool
	DegradedReason string

	// 本轮持久化的(user, assistant)消息ID
	UserMessageID uint
	AIMessageID   uint
}

// Orchestrator 把范围解析、改写、检索、生成、持久化串成一次查询流程
type Orchestrator struct {
	llm          llms.Model
	embedder     embeddings.Embedder
	index        ChunkSearcher
	history      HistoryStore
	sessions     SessionScopeReader
	reformulator *Reformulator
	params       vectorindex.SearchParams
}

func NewOrchestrator(
	llm llms.Model,
	embedder embeddings.Embedder,
	index ChunkSearcher,
	history HistoryStore,
	sessions SessionScopeReader,
) *Orchestrator {
	return &Orchestrator{
		llm:          llm,
		embedder:     embedder,
		index:        index,
		history:      history,
		sessions:     sessions,
		reformulator: NewReformulator(llm),
		params:       vectorindex.DefaultSearchParams(),
	}
}

// Query 执行一次RAG查询
// streamFunc不为nil时回答内容以流式回调输出
// 返回ErrUpstreamUnavailable包装的错误时调用方可整体重试
func (o *Orchestrator) Query(ctx context.Context, in QueryInput, streamFunc func(ctx context.Context, chunk []byte)) (*QueryResult, error) {
	sessionFolderID, err := o.sessions.SessionFolderID(in.OwnerID, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session folder: %v", err)
	}
	scope := ResolveScope(in.FolderID, sessionFolderID)

	filter, err := vectorindex.NewSearchFilter(in.OwnerID, scope)
	if err != nil {
		return nil, err
	}

	history, err := o.history.Messages(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %v", err)
	}

	reformulation := o.reformulator.Reformulate(ctx, in.Query, history)

	queryVector, err := o.embedder.EmbedQuery(ctx, reformulation.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrUpstreamUnavailable, err)
	}

	results, err := o.index.Search(ctx, queryVector, o.params, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: searching chunks: %v", ErrUpstreamUnavailable, err)
	}
	if len(results) == 0 {
		slog.Info("no relevant chunks retrieved",
			"session_id", in.SessionID,
			"scope", scopeString(scope),
		)
	}

	answer, err := o.generate(ctx, reformulation.Query, results, history, streamFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: generating answer: %v", ErrUpstreamUnavailable, err)
	}

	userMsgID, aiMsgID, err := o.history.AppendExchange(ctx, in.SessionID, in.Query, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to persist messages: %v", err)
	}

	result := &QueryResult{
		Answer:         answer,
		RetrievalQuery: reformulation.Query,
		Degraded:       reformulation.Degraded,
		DegradedReason: reformulation.Reason,
		UserMessageID:  userMsgID,
		AIMessageID:    aiMsgID,
	}
	for _, r := range results {
		result.Sources = append(result.Sources, Source{
			DocumentID:    r.DocumentID,
			DocumentTitle: r.Title,
			ChunkIndex:    r.ChunkIndex,
			Content:       r.Text,
		})
	}
	return result, nil
}

func (o *Orchestrator) generate(
	ctx context.Context,
	query string,
	results []vectorindex.SearchResult,
	history []llms.ChatMessage,
	streamFunc func(ctx context.Context, chunk []byte),
) (string, error) {
	systemPrompt, err := renderQAPrompt(results)
	if err != nil {
		return "", err
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, msg := range history {
		messages = append(messages, llms.TextParts(msg.GetType(), msg.GetContent()))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))

	var opts []llms.CallOption
	if streamFunc != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			streamFunc(ctx, chunk)
			return nil
		}))
	}

	resp, err := o.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// renderQAPrompt 按检索排序拼接上下文，排序就是传给生成的顺序
func renderQAPrompt(results []vectorindex.SearchResult) (string, error) {
	contextBlock := noContextMarker
	if len(results) > 0 {
		var b strings.Builder
		for i, r := range results {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			b.WriteString(r.Text)
		}
		contextBlock = b.String()
	}

	tmpl, err := template.New("qa").Parse(qaSystemPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse qa prompt template: %v", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Context string }{Context: contextBlock}); err != nil {
		return "", fmt.Errorf("failed to execute qa prompt template: %v", err)
	}
	return buf.String(), nil
}

func scopeString(folderID *uint) string {
	if folderID == nil {
		return "global"
	}
	return fmt.Sprintf("folder:%d", *folderID)
}
