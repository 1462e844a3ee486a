package request

type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Query     string `json:"query" binding:"required"`

	// 显式指定的检索目录，优先级高于会话绑定的目录
	FolderID *uint `json:"folder_id"`

	// 是否在响应中返回检索到的来源片段
	WithSources bool `json:"with_sources"`
}
