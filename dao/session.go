package dao

import (
	"errors"
	"rag-chatbot-backend/model"

	"gorm.io/gorm"
)

func CreateSession(session *model.Session) error {
	return DB.Create(session).Error
}

func GetSessionsByUserID(userID uint) ([]model.Session, error) {
	var sessions []model.Session
	if err := DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func GetSession(userID uint, sessionID string) (*model.Session, error) {
	var session model.Session
	if err := DB.Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionFolderID 返回会话当前绑定的目录
// 每次查询都重新读取，绑定目录可能已被并发请求修改，调用方不得缓存
func GetSessionFolderID(userID uint, sessionID string) (*uint, error) {
	session, err := GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return session.FolderID, nil
}

func DeleteSession(userID uint, sessionID string) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND session_id = ?", userID, sessionID).
			Delete(&model.Session{}).Error; err != nil {
			return err
		}

		// 删除会话内的对话记录
		return tx.Where("session_id = ?", sessionID).
			Delete(&model.Message{}).Error
	})
}

func GetMessagesBySessionID(sessionID string) ([]model.Message, error) {
	var messages []model.Message
	if err := DB.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func GetMessageByID(messageID uint) (*model.Message, error) {
	var message model.Message
	if err := DB.Where("id = ?", messageID).
		First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func UpdateSessionTitle(userID uint, sessionID, title string) error {
	return DB.Model(&model.Session{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Update("title", title).Error
}

func UpdateSessionFolder(userID uint, sessionID string, folderID *uint) error {
	return DB.Model(&model.Session{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Update("folder_id", folderID).Error
}
