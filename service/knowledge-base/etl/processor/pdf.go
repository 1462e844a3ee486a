package processor

import (
	"bytes"
	"context"
	"fmt"

	"rag-chatbot-backend/model"

	"github.com/tmc/langchaingo/documentloaders"
)

type PDFETLProcessor struct {
	BaseETLProcessor
}

var _ ETLProcessor = &PDFETLProcessor{}

func NewPDFETLProcessor() (*PDFETLProcessor, error) {
	splitter, err := newRecursiveSplitter(defaultChunkSize, defaultChunkOverlap)
	if err != nil {
		return nil, err
	}

	base, err := NewBaseETLProcessor(splitter)
	if err != nil {
		return nil, err
	}

	return &PDFETLProcessor{BaseETLProcessor: *base}, nil
}

func (p *PDFETLProcessor) CanProcess(fileType model.FileType) bool {
	return fileType == model.FileTypePDF
}

func (p *PDFETLProcessor) ExecuteETLPipeline(ctx context.Context, object []byte, doc *model.Document) error {
	reader := bytes.NewReader(object)
	loader := documentloaders.NewPDF(reader, int64(len(object)))

	docs, err := loader.LoadAndSplit(ctx, p.TextSplitter)
	if err != nil {
		return fmt.Errorf("error loading and spliting pdf: %v", err)
	}

	return p.indexDocuments(ctx, docs, doc)
}
