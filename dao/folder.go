package dao

import (
	"errors"
	"rag-chatbot-backend/model"

	"gorm.io/gorm"
)

func CreateFolder(folder *model.Folder) error {
	return DB.Create(folder).Error
}

func GetFoldersByUserID(userID uint, includeArchived bool) ([]model.Folder, error) {
	query := DB.Where("user_id = ?", userID)
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}

	var folders []model.Folder
	if err := query.Order("created_at DESC").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func GetFolder(userID, folderID uint) (*model.Folder, error) {
	var folder model.Folder
	if err := DB.Where("user_id = ? AND id = ?", userID, folderID).
		First(&folder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &folder, nil
}

func UpdateFolder(folder *model.Folder) error {
	return DB.Model(&model.Folder{}).
		Where("user_id = ? AND id = ?", folder.UserID, folder.ID).
		Updates(map[string]any{
			"name":             folder.Name,
			"description":      folder.Description,
			"parent_folder_id": folder.ParentFolderID,
		}).Error
}

func SetFolderArchived(userID, folderID uint, archived bool) error {
	return DB.Model(&model.Folder{}).
		Where("user_id = ? AND id = ?", userID, folderID).
		Update("is_archived", archived).Error
}

// DeleteFolder 删除目录
// 目录内的文档和会话不会被删除，folder_id置空；子目录提升到被删目录的父级
func DeleteFolder(userID, folderID uint, parentFolderID *uint) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Document{}).
			Where("user_id = ? AND folder_id = ?", userID, folderID).
			Update("folder_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Session{}).
			Where("user_id = ? AND folder_id = ?", userID, folderID).
			Update("folder_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Folder{}).
			Where("user_id = ? AND parent_folder_id = ?", userID, folderID).
			Update("parent_folder_id", parentFolderID).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ? AND id = ?", userID, folderID).
			Delete(&model.Folder{}).Error
	})
}
