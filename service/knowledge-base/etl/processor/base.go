package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rag-chatbot-backend/config"
	"rag-chatbot-backend/model"
	"rag-chatbot-backend/service/vectorindex"
	"rag-chatbot-backend/utils"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize          = 1000
	defaultChunkOverlap       = 200
	defaultEmbeddingBatchSize = 10
)

// 切分优先级：段落、换行、句子边界、词、字符
var defaultSeparators = []string{"\n\n", "\n", "。", "！", "？", "；", "，", ". ", " ", ""}

// newRecursiveSplitter 构造递归字符切分器
// 配置错误在此处拒绝，不会推迟到处理单个文档时才暴露
func newRecursiveSplitter(chunkSize, chunkOverlap int) (textsplitter.TextSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}

	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(defaultSeparators),
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	), nil
}

// BaseETLProcessor 各文件类型处理器共享的切分、向量化、写索引能力
type BaseETLProcessor struct {
	TextSplitter textsplitter.TextSplitter
	Embedder     embeddings.Embedder
	Index        *vectorindex.ChunkIndex
}

func NewBaseETLProcessor(splitter textsplitter.TextSplitter) (*BaseETLProcessor, error) {
	client, err := openai.New(
		openai.WithEmbeddingModel(config.Cfg.Model.EmbeddingModel),
		openai.WithToken(config.Cfg.Model.APIKey),
		openai.WithBaseURL(config.Cfg.Model.BaseURL),
		openai.WithHTTPClient(utils.NewHTTPClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder client: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(defaultEmbeddingBatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %v", err)
	}

	index, err := vectorindex.NewChunkIndex(context.Background())
	if err != nil {
		return nil, err
	}

	return &BaseETLProcessor{
		TextSplitter: splitter,
		Embedder:     embedder,
		Index:        index,
	}, nil
}

// indexDocuments 向量化切分结果并整体写入索引
// 元数据的folder_id取文档当前目录的快照
func (p *BaseETLProcessor) indexDocuments(ctx context.Context, docs []schema.Document, doc *model.Document) error {
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.PageContent) == "" {
			continue
		}
		texts = append(texts, d.PageContent)
	}
	if len(texts) == 0 {
		slog.Info("document produced no chunks", "document_id", doc.ID, "title", doc.Title)
		return nil
	}

	vectors, err := p.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("error embedding document %d: %v", doc.ID, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding count mismatch for document %d: %d texts, %d vectors", doc.ID, len(texts), len(vectors))
	}

	var folderID uint
	if doc.FolderID != nil {
		folderID = *doc.FolderID
	}

	chunks := make([]vectorindex.IndexedChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, vectorindex.IndexedChunk{
			Text:       text,
			Vector:     vectors[i],
			DocumentID: doc.ID,
			OwnerID:    doc.UserID,
			FolderID:   folderID,
			ChunkIndex: i,
			Title:      doc.Title,
		})
	}

	if err := p.Index.Insert(ctx, chunks); err != nil {
		return err
	}

	slog.Debug("indexed document chunks",
		"document_id", doc.ID,
		"chunks_num", len(chunks),
	)
	return nil
}
