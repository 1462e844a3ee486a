package model

import "time"

// Folder 用于组织文档和会话的目录，支持通过ParentFolderID嵌套成树
type Folder struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Description    string    `json:"description"`
	ParentFolderID *uint     `gorm:"index" json:"parent_folder_id"`

	// 归档目录默认不在列表中展示，不会被物理删除
	IsArchived bool `gorm:"not null;default:false" json:"is_archived"`
}

func (Folder) TableName() string {
	return "folder"
}
