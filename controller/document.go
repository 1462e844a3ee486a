package controller

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"rag-chatbot-backend/dao"
	"rag-chatbot-backend/model"
	"rag-chatbot-backend/request"
	"rag-chatbot-backend/response"
	knowledgebase "rag-chatbot-backend/service/knowledge-base"
	"rag-chatbot-backend/service/knowledge-base/etl"
	"rag-chatbot-backend/service/mq"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var supportedFileTypes = map[model.FileType]bool{
	model.FileTypePDF:      true,
	model.FileTypeMarkdown: true,
	model.FileTypeText:     true,
}

func documentIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return 0, false
	}
	return uint(id), true
}

// UploadDocument 接收multipart文件，上传到OSS后向MQ发送向量化任务
func UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	fileType := model.FileType(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	if !supportedFileTypes[fileType] {
		slog.Error(ErrUnsupportedFileType.Error(), "file_name", fileHeader.Filename)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrUnsupportedFileType.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")

	var folderID *uint
	if raw := c.PostForm("folder_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			slog.Error(ErrParseRequest.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
				Msg: ErrParseRequest.Error(),
			})
			return
		}
		fid := uint(id)
		folder, err := dao.GetFolder(userID, fid)
		if err != nil {
			slog.Error(ErrUploadDocument.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Msg: ErrUploadDocument.Error(),
			})
			return
		}
		if folder == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
				Msg: ErrFolderNotFound.Error(),
			})
			return
		}
		folderID = &fid
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Error(ErrUploadDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUploadDocument.Error(),
		})
		return
	}
	defer file.Close()

	// 对象名带随机前缀，同名文件互不覆盖
	objectName := fmt.Sprintf("%d/%s-%s", userID, uuid.New().String(), fileHeader.Filename)
	if err := knowledgebase.PutObject(c.Request.Context(), objectName, file); err != nil {
		slog.Error(ErrUploadDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUploadDocument.Error(),
		})
		return
	}

	doc := model.Document{
		UserID:     userID,
		FolderID:   folderID,
		Title:      fileHeader.Filename,
		FileType:   fileType,
		FileSize:   fileHeader.Size,
		ObjectName: objectName,
		Status:     model.StatusUploaded,
	}
	if err := dao.CreateDocument(&doc); err != nil {
		slog.Error(ErrUploadDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUploadDocument.Error(),
		})
		return
	}

	err = mq.SendMessage(c.Request.Context(), &mq.Message{
		Topic: mq.TopicKnowledgeBase,
		Tag:   mq.TagETL,
		Payload: etl.ETLMessage{
			DocumentID: doc.ID,
		},
	})
	if err != nil {
		slog.Error("Failed to enqueue ETL task", "document_id", doc.ID, "err", err)
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: response.DocumentResponse{
			ID:       doc.ID,
			Title:    doc.Title,
			FileType: string(doc.FileType),
			FileSize: doc.FileSize,
			FolderID: doc.FolderID,
			Status:   string(doc.Status),
		},
	})
}

func GetDocuments(c *gin.Context) {
	userID := c.GetUint("user_id")

	var folderID *uint
	if raw := c.Query("folder-id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			slog.Error(ErrParseRequest.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
				Msg: ErrParseRequest.Error(),
			})
			return
		}
		fid := uint(id)
		folderID = &fid
	}

	docs, err := dao.GetDocumentsByUserID(userID, folderID)
	if err != nil {
		slog.Error(ErrGetDocuments.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetDocuments.Error(),
		})
		return
	}

	var resp response.GetDocumentsResponse
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, response.DocumentResponse{
			ID:       doc.ID,
			Title:    doc.Title,
			FileType: string(doc.FileType),
			FileSize: doc.FileSize,
			FolderID: doc.FolderID,
			Status:   string(doc.Status),
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

// DeleteDocument 删除文档元数据，向MQ发送索引和OSS清理任务
func DeleteDocument(c *gin.Context) {
	documentID, ok := documentIDParam(c)
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	doc, err := dao.GetDocument(userID, documentID)
	if err != nil {
		slog.Error(ErrDeleteDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteDocument.Error(),
		})
		return
	}
	if doc == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrDocumentNotFound.Error(),
		})
		return
	}

	if err := dao.DeleteDocument(userID, documentID); err != nil {
		slog.Error(ErrDeleteDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteDocument.Error(),
		})
		return
	}

	err = mq.SendMessage(c.Request.Context(), &mq.Message{
		Topic: mq.TopicKnowledgeBase,
		Tag:   mq.TagDelete,
		Payload: etl.DeleteMessage{
			OwnerID:    userID,
			DocumentID: documentID,
			ObjectName: doc.ObjectName,
		},
	})
	if err != nil {
		slog.Error("Failed to enqueue delete task", "document_id", documentID, "err", err)
	}

	c.JSON(http.StatusOK, response.Response{})
}

// MoveDocument 移动文档到目标目录，已索引的文档自动重建索引
func MoveDocument(c *gin.Context) {
	documentID, ok := documentIDParam(c)
	if !ok {
		return
	}

	var req request.MoveDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	doc, err := dao.GetDocument(userID, documentID)
	if err != nil {
		slog.Error(ErrMoveDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrMoveDocument.Error(),
		})
		return
	}
	if doc == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrDocumentNotFound.Error(),
		})
		return
	}

	if req.FolderID != nil {
		folder, err := dao.GetFolder(userID, *req.FolderID)
		if err != nil {
			slog.Error(ErrMoveDocument.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Msg: ErrMoveDocument.Error(),
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

	if err := dao.UpdateDocumentFolder(userID, documentID, req.FolderID); err != nil {
		slog.Error(ErrMoveDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrMoveDocument.Error(),
		})
		return
	}

	// 已入索引的chunk还带着旧目录快照，重建保证检索范围正确
	if doc.Status == model.StatusProcessed {
		err := mq.SendMessage(c.Request.Context(), &mq.Message{
			Topic: mq.TopicKnowledgeBase,
			Tag:   mq.TagReindex,
			Payload: etl.ReindexMessage{
				DocumentID: documentID,
			},
		})
		if err != nil {
			slog.Error("Failed to enqueue reindex task", "document_id", documentID, "err", err)
		}
	}

	c.JSON(http.StatusOK, response.Response{})
}

func GetDownloadLink(c *gin.Context) {
	documentID, ok := documentIDParam(c)
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	doc, err := dao.GetDocument(userID, documentID)
	if err != nil {
		slog.Error(ErrGetDownloadLink.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetDownloadLink.Error(),
		})
		return
	}
	if doc == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrDocumentNotFound.Error(),
		})
		return
	}

	url, err := knowledgebase.GeneratePresignedURL(c.Request.Context(), doc.ObjectName)
	if err != nil {
		slog.Error(ErrGetDownloadLink.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetDownloadLink.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.GetDownloadLinkResponse{
			URL: url,
		},
	})
}
