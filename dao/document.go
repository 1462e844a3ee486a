package dao

import (
	"errors"
	"rag-chatbot-backend/model"

	"gorm.io/gorm"
)

func CreateDocument(doc *model.Document) error {
	return DB.Create(doc).Error
}

func GetDocumentsByUserID(userID uint, folderID *uint) ([]model.Document, error) {
	query := DB.Where("user_id = ?", userID)
	if folderID != nil {
		query = query.Where("folder_id = ?", *folderID)
	}

	var docs []model.Document
	if err := query.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func GetDocument(userID, documentID uint) (*model.Document, error) {
	var doc model.Document
	if err := DB.Where("user_id = ? AND id = ?", userID, documentID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func GetDocumentByID(documentID uint) (*model.Document, error) {
	var doc model.Document
	if err := DB.Where("id = ?", documentID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func DeleteDocument(userID, documentID uint) error {
	return DB.Where("user_id = ? AND id = ?", userID, documentID).
		Delete(&model.Document{}).Error
}

func UpdateDocumentStatus(documentID uint, status model.Status) error {
	return DB.Model(&model.Document{}).
		Where("id = ?", documentID).
		Update("status", status).Error
}

func UpdateDocumentFolder(userID, documentID uint, folderID *uint) error {
	return DB.Model(&model.Document{}).
		Where("user_id = ? AND id = ?", userID, documentID).
		Update("folder_id", folderID).Error
}
