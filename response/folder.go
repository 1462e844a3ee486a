package response

type FolderResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ParentFolderID *uint  `json:"parent_folder_id"`
	IsArchived     bool   `json:"is_archived"`
}

type GetFoldersResponse struct {
	Folders []FolderResponse `json:"folders"`
}
