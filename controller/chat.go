package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"rag-chatbot-backend/dao"
	"rag-chatbot-backend/request"
	"rag-chatbot-backend/response"
	"rag-chatbot-backend/service/rag"
	"rag-chatbot-backend/service/summarization"
	"rag-chatbot-backend/utils"

	"github.com/gin-gonic/gin"
)

var getSession = dao.GetSession

// Chat 基于用户文档回答查询，答案以SSE流式返回
// 事件序列：answer(多次) → sources(可选) → done；出错时发送error后结束
func Chat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	session, err := getSession(userID, req.SessionID)
	if err != nil {
		slog.Error(ErrCallRAG.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCallRAG.Error(),
		})
		return
	}
	if session == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrSessionNotFound.Error(),
		})
		return
	}

	utils.SetSSEHeaders(c)

	// 客户端断开时HTTP server会取消请求context，无需额外监听
	ctx := c.Request.Context()

	streamFunc := func(ctx context.Context, chunk []byte) {
		utils.SendSSEMessage(c, utils.EventAnswer, string(chunk))
	}

	result, err := rag.OrchestratorInstance.Query(ctx, rag.QueryInput{
		OwnerID:   userID,
		SessionID: req.SessionID,
		Query:     req.Query,
		FolderID:  req.FolderID,
	}, streamFunc)
	if err != nil {
		slog.Error(ErrCallRAG.Error(), "err", err)
		if errors.Is(err, rag.ErrUpstreamUnavailable) {
			utils.SendSSEMessage(c, utils.EventError, rag.ErrUpstreamUnavailable.Error())
		} else {
			utils.SendSSEMessage(c, utils.EventError, ErrCallRAG.Error())
		}
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	if req.WithSources {
		sources := make([]response.SourceResponse, 0, len(result.Sources))
		for _, s := range result.Sources {
			sources = append(sources, response.SourceResponse{
				DocumentID:    s.DocumentID,
				DocumentTitle: s.DocumentTitle,
				ChunkIndex:    s.ChunkIndex,
				Content:       s.Content,
			})
		}
		utils.SendSSEMessage(c, utils.EventSources, response.ChatSourcesResponse{
			Sources:  sources,
			Degraded: result.Degraded,
		})
	}

	utils.SendSSEMessage(c, utils.EventDone, "")

	summarization.SummarizerInstance.RegisterSummaryTask(summarization.SummaryTask{
		MessageIDs: []uint{
			result.UserMessageID,
			result.AIMessageID,
		},
	})
}
