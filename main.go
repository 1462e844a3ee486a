package main

import (
	"context"
	"log/slog"
	"os"

	"rag-chatbot-backend/config"
	"rag-chatbot-backend/dao"
	"rag-chatbot-backend/router"
	"rag-chatbot-backend/service/knowledge-base/etl"
	"rag-chatbot-backend/service/mq"
	"rag-chatbot-backend/service/rag"
	"rag-chatbot-backend/service/summarization"
)

func main() {
	if err := config.Load(); err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	if err := dao.Init(); err != nil {
		slog.Error("Failed to init database", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := rag.Init(ctx); err != nil {
		slog.Error("Failed to init rag service", "err", err)
		os.Exit(1)
	}

	if err := etl.Init(); err != nil {
		slog.Error("Failed to init etl pipeline", "err", err)
		os.Exit(1)
	}

	if err := mq.Init(); err != nil {
		slog.Error("Failed to init mq", "err", err)
		os.Exit(1)
	}
	if err := mq.Run(); err != nil {
		slog.Error("Failed to start mq", "err", err)
		os.Exit(1)
	}
	defer mq.Shutdown()

	if err := summarization.Init(); err != nil {
		slog.Error("Failed to init summarizer", "err", err)
		os.Exit(1)
	}
	summarization.SummarizerInstance.Run()

	r := router.Register()
	addr := config.Cfg.Server.Host + ":" + config.Cfg.Server.Port
	if err := r.Run(addr); err != nil {
		slog.Error("Server exited", "err", err)
		os.Exit(1)
	}
}
