package request

type UpdateSessionTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

type UpdateSessionFolderRequest struct {
	// 为空表示解绑目录，会话恢复全局检索范围
	FolderID *uint `json:"folder_id"`
}
