package request

type MoveDocumentRequest struct {
	// 为空表示移出目录
	FolderID *uint `json:"folder_id"`
}
