package controller

import (
	"log/slog"
	"net/http"
	"strconv"

	"rag-chatbot-backend/dao"
	"rag-chatbot-backend/model"
	"rag-chatbot-backend/request"
	"rag-chatbot-backend/response"
	"rag-chatbot-backend/service/knowledge-base/etl"
	"rag-chatbot-backend/service/mq"

	"github.com/gin-gonic/gin"
)

func folderIDParam(c *gin.Context) (uint, bool) {
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

func CreateFolder(c *gin.Context) {
	var req request.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	if req.ParentFolderID != nil {
		parent, err := dao.GetFolder(userID, *req.ParentFolderID)
		if err != nil {
			slog.Error(ErrCreateFolder.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Msg: ErrCreateFolder.Error(),
			})
			return
		}
		if parent == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
				Msg: ErrFolderNotFound.Error(),
			})
			return
		}
	}

	folder := model.Folder{
		UserID:         userID,
		Name:           req.Name,
		Description:    req.Description,
		ParentFolderID: req.ParentFolderID,
	}
	if err := dao.CreateFolder(&folder); err != nil {
		slog.Error(ErrCreateFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateFolder.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: response.FolderResponse{
			ID:             folder.ID,
			Name:           folder.Name,
			Description:    folder.Description,
			ParentFolderID: folder.ParentFolderID,
			IsArchived:     folder.IsArchived,
		},
	})
}

func GetFolders(c *gin.Context) {
	userID := c.GetUint("user_id")
	includeArchived := c.Query("include-archived") == "true"

	folders, err := dao.GetFoldersByUserID(userID, includeArchived)
	if err != nil {
		slog.Error(ErrGetFolders.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetFolders.Error(),
		})
		return
	}

	var resp response.GetFoldersResponse
	for _, f := range folders {
		resp.Folders = append(resp.Folders, response.FolderResponse{
			ID:             f.ID,
			Name:           f.Name,
			Description:    f.Description,
			ParentFolderID: f.ParentFolderID,
			IsArchived:     f.IsArchived,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func GetFolder(c *gin.Context) {
	folderID, ok := folderIDParam(c)
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	folder, err := dao.GetFolder(userID, folderID)
	if err != nil {
		slog.Error(ErrGetFolders.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetFolders.Error(),
		})
		return
	}
	if folder == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrFolderNotFound.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.FolderResponse{
			ID:             folder.ID,
			Name:           folder.Name,
			Description:    folder.Description,
			ParentFolderID: folder.ParentFolderID,
			IsArchived:     folder.IsArchived,
		},
	})
}

func UpdateFolder(c *gin.Context) {
	folderID, ok := folderIDParam(c)
	if !ok {
		return
	}

	var req request.UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	userID := c.GetUint("user_id")
	folder, err := dao.GetFolder(userID, folderID)
	if err != nil {
		slog.Error(ErrUpdateFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateFolder.Error(),
		})
		return
	}
	if folder == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrFolderNotFound.Error(),
		})
		return
	}

	if req.Name != nil {
		folder.Name = *req.Name
	}
	if req.Description != nil {
		folder.Description = *req.Description
	}
	if req.ParentFolderID != nil {
		folder.ParentFolderID = req.ParentFolderID
	}

	if err := dao.UpdateFolder(folder); err != nil {
		slog.Error(ErrUpdateFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateFolder.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func ArchiveFolder(c *gin.Context) {
	setFolderArchived(c, true)
}

func UnarchiveFolder(c *gin.Context) {
	setFolderArchived(c, false)
}

func setFolderArchived(c *gin.Context, archived bool) {
	folderID, ok := folderIDParam(c)
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	if err := dao.SetFolderArchived(userID, folderID, archived); err != nil {
		slog.Error(ErrArchiveFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrArchiveFolder.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

// DeleteFolder 删除目录，目录内文档和会话保留并移出目录，子目录提升到父级
// 移出目录的文档需要重建索引，使chunk中的目录快照与元数据一致
func DeleteFolder(c *gin.Context) {
	folderID, ok := folderIDParam(c)
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	folder, err := dao.GetFolder(userID, folderID)
	if err != nil {
		slog.Error(ErrDeleteFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteFolder.Error(),
		})
		return
	}
	if folder == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrFolderNotFound.Error(),
		})
		return
	}

	docs, err := dao.GetDocumentsByUserID(userID, &folderID)
	if err != nil {
		slog.Error(ErrDeleteFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteFolder.Error(),
		})
		return
	}

	if err := dao.DeleteFolder(userID, folderID, folder.ParentFolderID); err != nil {
		slog.Error(ErrDeleteFolder.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteFolder.Error(),
		})
		return
	}

	for _, doc := range docs {
		if doc.Status != model.StatusProcessed {
			continue
		}
		err := mq.SendMessage(c.Request.Context(), &mq.Message{
			Topic: mq.TopicKnowledgeBase,
			Tag:   mq.TagReindex,
			Payload: etl.ReindexMessage{
				DocumentID: doc.ID,
			},
		})
		if err != nil {
			slog.Error("Failed to enqueue reindex after folder delete",
				"document_id", doc.ID,
				"err", err,
			)
		}
	}

	c.JSON(http.StatusOK, response.Response{})
}
