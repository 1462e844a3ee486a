package rag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rag-chatbot-backend/config"
	"rag-chatbot-backend/dao"
	"rag-chatbot-backend/service/chat"
	"rag-chatbot-backend/service/vectorindex"
	"rag-chatbot-backend/utils"

	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

const embeddingBatchSize = 10

var (
	// 配置 300s 超时时间处理 LLM 流式输出
	llmHTTPClient *http.Client = utils.NewHTTPClient(
		utils.WithTimeout(300 * time.Second),
	)

	embeddingHTTPClient *http.Client = utils.NewHTTPClient(
		utils.WithTimeout(60 * time.Second),
	)
)

// OrchestratorInstance 全局查询编排器，main中调用Init后生效
var OrchestratorInstance *Orchestrator

func Init(ctx context.Context) error {
	llm, err := openai.New(
		openai.WithModel(config.Cfg.Model.ChatModel),
		openai.WithToken(config.Cfg.Model.APIKey),
		openai.WithBaseURL(config.Cfg.Model.BaseURL),
		openai.WithHTTPClient(llmHTTPClient),
	)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %v", err)
	}

	embeddingClient, err := openai.New(
		openai.WithEmbeddingModel(config.Cfg.Model.EmbeddingModel),
		openai.WithToken(config.Cfg.Model.APIKey),
		openai.WithBaseURL(config.Cfg.Model.BaseURL),
		openai.WithHTTPClient(embeddingHTTPClient),
	)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(embeddingClient,
		embeddings.WithBatchSize(embeddingBatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %v", err)
	}

	index, err := vectorindex.NewChunkIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to create chunk index: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Cfg.Redis.Addr,
		Password: config.Cfg.Redis.Password,
		DB:       config.Cfg.Redis.DB,
	})
	history := chat.NewHistory(dao.DB, chat.NewHistoryCache(redisClient, 0))

	OrchestratorInstance = NewOrchestrator(llm, embedder, index, history, daoSessionScope{})
	return nil
}

// daoSessionScope 每次查询时重新读取会话绑定的目录
type daoSessionScope struct{}

func (daoSessionScope) SessionFolderID(ownerID uint, sessionID string) (*uint, error) {
	return dao.GetSessionFolderID(ownerID, sessionID)
}
