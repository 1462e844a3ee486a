package response

type DocumentResponse struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	FolderID *uint  `json:"folder_id"`
	Status   string `json:"status"`
}

type GetDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type GetDownloadLinkResponse struct {
	URL string `json:"url"`
}
