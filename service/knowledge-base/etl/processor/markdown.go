package processor

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"rag-chatbot-backend/model"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// MarkdownETLProcessor Markdown文件ETL处理器，兼容Text文件
type MarkdownETLProcessor struct {
	BaseETLProcessor
}

var _ ETLProcessor = &MarkdownETLProcessor{}

func NewMarkdownETLProcessor() (*MarkdownETLProcessor, error) {
	secondSplitter, err := newRecursiveSplitter(defaultChunkSize, defaultChunkOverlap)
	if err != nil {
		return nil, err
	}

	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithChunkSize(defaultChunkSize),
		textsplitter.WithChunkOverlap(defaultChunkOverlap),
		textsplitter.WithHeadingHierarchy(true), // 保留父级标题信息
		textsplitter.WithSecondSplitter(secondSplitter),
	)

	base, err := NewBaseETLProcessor(splitter)
	if err != nil {
		return nil, err
	}

	return &MarkdownETLProcessor{BaseETLProcessor: *base}, nil
}

func (p *MarkdownETLProcessor) CanProcess(fileType model.FileType) bool {
	return fileType == model.FileTypeMarkdown || fileType == model.FileTypeText
}

func (p *MarkdownETLProcessor) ExecuteETLPipeline(ctx context.Context, object []byte, doc *model.Document) error {
	reader := bytes.NewReader(object)
	loader := documentloaders.NewText(reader)

	docs, err := loader.LoadAndSplit(ctx, p.TextSplitter)
	if err != nil {
		return fmt.Errorf("error loading and spliting markdown: %v", err)
	}

	// 过滤只有孤立标题的chunk
	docs = filterStandaloneHeaders(docs)

	return p.indexDocuments(ctx, docs, doc)
}

// 匹配形如 "# xxx ## xxx" 的chunk
var headerOnlyRegex = regexp.MustCompile(`^\s*(?:#{1,6}\s+.+\n?)+\s*$`)

func filterStandaloneHeaders(docs []schema.Document) []schema.Document {
	var filtered []schema.Document
	for _, doc := range docs {
		content := strings.TrimSpace(doc.PageContent)
		if content == "" || headerOnlyRegex.MatchString(content) {
			continue
		}
		filtered = append(filtered, doc)
	}
	return filtered
}
