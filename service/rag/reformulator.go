package rag

import (
	"context"
	_ "embed"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

//go:embed prompts/reformulate_system.txt
var reformulateSystemPrompt string

// Reformulation 查询改写结果
// Degraded为true表示改写失败回退了原始查询，属于质量降级而非错误
type Reformulation struct {
	Query    string
	Degraded bool
	Reason   string
}

// Reformulator 结合对话历史把追问改写成独立可检索的查询
type Reformulator struct {
	llm llms.Model
}

func NewReformulator(llm llms.Model) *Reformulator {
	return &Reformulator{llm: llm}
}

// Reformulate 历史为空时原样返回，不调用LLM
func (r *Reformulator) Reformulate(ctx context.Context, query string, history []llms.ChatMessage) Reformulation {
	if len(history) == 0 {
		return Reformulation{Query: query}
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, reformulateSystemPrompt))
	for _, msg := range history {
		messages = append(messages, llms.TextParts(msg.GetType(), msg.GetContent()))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))

	resp, err := r.llm.GenerateContent(ctx, messages)
	if err != nil {
		slog.Warn("query reformulation failed, falling back to the raw query",
			"query", query,
			"err", err,
		)
		return Reformulation{Query: query, Degraded: true, Reason: err.Error()}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		slog.Warn("query reformulation returned no content, falling back to the raw query",
			"query", query,
		)
		return Reformulation{Query: query, Degraded: true, Reason: "empty reformulation"}
	}

	return Reformulation{Query: strings.TrimSpace(resp.Choices[0].Content)}
}
