package model

import "time"

const DefaultSessionTitle = "新会话"

type Session struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	SessionID string    `gorm:"not null;uniqueIndex;size:64" json:"session_id"`
	Title     string    `json:"title"`

	// 会话绑定的目录，查询时作为默认检索范围，请求显式指定目录时被覆盖
	FolderID *uint `gorm:"index" json:"folder_id"`
}

func (Session) TableName() string {
	return "chat_session"
}

// Message 建立联合索引 (session_id, created_at)
// 消息只追加，创建后不修改内容；一轮问答的(user, assistant)两条消息在同一事务内写入
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_session_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SessionID string    `gorm:"not null;index:idx_session_created;size:64" json:"session_id"`
	Role      string    `gorm:"not null" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`
	Summary   string    `gorm:"type:text" json:"summary"`
}

func (Message) TableName() string {
	return "chat_message"
}
