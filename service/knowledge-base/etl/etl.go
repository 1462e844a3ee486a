package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"rag-chatbot-backend/dao"
	"rag-chatbot-backend/model"
	knowledgebase "rag-chatbot-backend/service/knowledge-base"
	"rag-chatbot-backend/service/knowledge-base/etl/processor"
	"rag-chatbot-backend/service/vectorindex"

	"github.com/apache/rocketmq-client-go/v2/primitive"
)

// 知识文件ETL处理器注册表
var etlProcessorRegistry []processor.ETLProcessor

var chunkIndex *vectorindex.ChunkIndex

type ETLMessage struct {
	DocumentID uint `json:"document_id"`
}

type DeleteMessage struct {
	OwnerID    uint   `json:"owner_id"`
	DocumentID uint   `json:"document_id"`
	ObjectName string `json:"object_name"`
}

type ReindexMessage struct {
	DocumentID uint `json:"document_id"`
}

func Init() error {
	pdfProcessor, err := processor.NewPDFETLProcessor()
	if err != nil {
		return fmt.Errorf("error creating PDFETLProcessor: %v", err)
	}

	markdownProcessor, err := processor.NewMarkdownETLProcessor()
	if err != nil {
		return fmt.Errorf("error creating MarkdownETLProcessor: %v", err)
	}

	etlProcessorRegistry = []processor.ETLProcessor{
		pdfProcessor,
		markdownProcessor,
	}

	chunkIndex, err = vectorindex.NewChunkIndex(context.Background())
	if err != nil {
		return err
	}
	return nil
}

func HandleETLMessage(ctx context.Context, msg *primitive.MessageExt) error {
	var etlMessage ETLMessage
	if err := json.Unmarshal(msg.Body, &etlMessage); err != nil {
		return fmt.Errorf("failed to unmarshal message body: %v", err)
	}

	doc, err := dao.GetDocumentByID(etlMessage.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to get document %d: %v", etlMessage.DocumentID, err)
	}

	return processDocument(ctx, doc)
}

// HandleDeleteMessage 删除文档在索引中的全部chunk和OSS上的文件
func HandleDeleteMessage(ctx context.Context, msg *primitive.MessageExt) error {
	var deleteMessage DeleteMessage
	if err := json.Unmarshal(msg.Body, &deleteMessage); err != nil {
		return fmt.Errorf("failed to unmarshal message body: %v", err)
	}

	if err := chunkIndex.DeleteByDocument(ctx, deleteMessage.OwnerID, deleteMessage.DocumentID); err != nil {
		return err
	}

	if err := knowledgebase.DeleteObject(ctx, deleteMessage.ObjectName); err != nil {
		return err
	}
	return nil
}

// HandleReindexMessage 文档移动目录后重建索引
// 先删除旧chunk再按文档当前目录重新处理，避免过期folder_id的chunk参与检索
func HandleReindexMessage(ctx context.Context, msg *primitive.MessageExt) error {
	var reindexMessage ReindexMessage
	if err := json.Unmarshal(msg.Body, &reindexMessage); err != nil {
		return fmt.Errorf("failed to unmarshal message body: %v", err)
	}

	doc, err := dao.GetDocumentByID(reindexMessage.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to get document %d: %v", reindexMessage.DocumentID, err)
	}

	if err := chunkIndex.DeleteByDocument(ctx, doc.UserID, doc.ID); err != nil {
		return err
	}

	return processDocument(ctx, doc)
}

// processDocument 执行ETL流程并维护文档状态
// 任何一步失败都会清掉该文档已写入的chunk，部分索引的文档不对检索可见
func processDocument(ctx context.Context, doc *model.Document) error {
	if err := dao.UpdateDocumentStatus(doc.ID, model.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update document status: %v", err)
	}

	object, err := knowledgebase.GetObject(ctx, doc.ObjectName)
	if err != nil {
		markProcessedFailed(ctx, doc)
		return err
	}

	for _, p := range etlProcessorRegistry {
		if !p.CanProcess(doc.FileType) {
			continue
		}

		if err := p.ExecuteETLPipeline(ctx, object, doc); err != nil {
			markProcessedFailed(ctx, doc)
			return fmt.Errorf("failed to execute ETL pipeline: %v", err)
		}

		return dao.UpdateDocumentStatus(doc.ID, model.StatusProcessed)
	}

	markProcessedFailed(ctx, doc)
	return fmt.Errorf("no processor found for file type: %s", doc.FileType)
}

func markProcessedFailed(ctx context.Context, doc *model.Document) {
	if err := chunkIndex.DeleteByDocument(ctx, doc.UserID, doc.ID); err != nil {
		slog.Error("failed to clean up chunks of failed document",
			"document_id", doc.ID,
			"err", err,
		)
	}

	if err := dao.UpdateDocumentStatus(doc.ID, model.StatusProcessedFailed); err != nil {
		slog.Error("failed to mark document as failed",
			"document_id", doc.ID,
			"err", err,
		)
	}
}
