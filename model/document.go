package model

import "time"

type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeMarkdown FileType = "md"
	FileTypeText     FileType = "txt"
)

type Status string

const (
	// 文件上传完成，等待向量化
	StatusUploaded Status = "UPLOADED"

	// 文件正在进行向量化处理
	StatusProcessing Status = "PROCESSING"

	// 文件向量化处理完成，可被检索
	StatusProcessed Status = "PROCESSED"

	// 文件向量化处理失败，索引中无残留chunk
	StatusProcessedFailed Status = "PROCESSED_FAILED"
)

// Document 存储知识文档元数据
// 建立联合索引 (user_id, created_at)
type Document struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index:idx_user_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	UserID    uint      `gorm:"not null;index:idx_user_created" json:"user_id"`
	FolderID  *uint     `gorm:"index" json:"folder_id"`
	Title     string    `gorm:"not null;size:255" json:"title"`
	FileType  FileType  `gorm:"not null" json:"file_type"`
	FileSize  int64     `gorm:"not null" json:"file_size"`

	// 文件在OSS上的完整路径，不包含bucket名称
	ObjectName string `gorm:"not null" json:"object_name"`

	// 文件处理状态，只有PROCESSED的文档对检索可见
	Status Status `gorm:"not null;default:UPLOADED" json:"status"`
}

func (Document) TableName() string {
	return "document"
}
