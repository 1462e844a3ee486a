package controller

import (
	"log/slog"
	"net/http"

	"rag-chatbot-backend/dao"
	"rag-chatbot-backend/model"
	"rag-chatbot-backend/request"
	"rag-chatbot-backend/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func CreateSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	session := model.Session{
		UserID:    userID,
		SessionID: uuid.New().String(),
		Title:     model.DefaultSessionTitle,
	}
	if err := dao.CreateSession(&session); err != nil {
		slog.Error(ErrCreateSession.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateSession.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: response.SessionResponse{
			SessionID: session.SessionID,
			Title:     session.Title,
			FolderID:  session.FolderID,
		},
	})
}

func GetSessions(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessions, err := dao.GetSessionsByUserID(userID)
	if err != nil {
		slog.Error(ErrGetSessions.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSessions.Error(),
		})
		return
	}

	var resp response.GetSessionsResponse
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, response.SessionResponse{
			SessionID: s.SessionID,
			Title:     s.Title,
			FolderID:  s.FolderID,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func DeleteSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID := c.Param("id")
	if err := dao.DeleteSession(userID, sessionID); err != nil {
		slog.Error(ErrDeleteSession.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteSession.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func GetSessionMessages(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID := c.Param("id")

	session, err := dao.GetSession(userID, sessionID)
	if err != nil {
		slog.Error(ErrGetSessionMessages.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSessionMessages.Error(),
		})
		return
	}
	if session == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrSessionNotFound.Error(),
		})
		return
	}

	messages, err := dao.GetMessagesBySessionID(sessionID)
	if err != nil {
		slog.Error(ErrGetSessionMessages.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSessionMessages.Error(),
		})
		return
	}

	var resp response.GetSessionMessagesResponse
	for _, m := range messages {
		resp.Messages = append(resp.Messages, response.MessageResponse{
			CreatedAt: m.CreatedAt,
			Role:      m.Role,
			Content:   m.Content,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func UpdateSessionTitle(c *gin.Context) {
	var req request.UpdateSessionTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	sessionID := c.Param("id")
	if err := dao.UpdateSessionTitle(userID, sessionID, req.Title); err != nil {
		slog.Error(ErrUpdateSessionTitle.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateSessionTitle.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

// UpdateSessionFolder 绑定或解绑会话的默认检索目录
func UpdateSessionFolder(c *gin.Context) {
	var req request.UpdateSessionFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	sessionID := c.Param("id")

	if req.FolderID != nil {
		folder, err := dao.GetFolder(userID, *req.FolderID)
		if err != nil {
			slog.Error(ErrUpdateSessionFolder.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Msg: ErrUpdateSessionFolder.Error(),
			})
			return
		}
		if folder == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
				Msg: ErrFolderNotFound.Error(),
			})
			return
		}
	}

	if err := dao.UpdateSessionFolder(userID, sessionID, req.FolderID); err != nil {
		slog.Error(ErrUpdateSessionFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateSessionFolder.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}
