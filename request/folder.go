package request

type CreateFolderRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	ParentFolderID *uint  `json:"parent_folder_id"`
}

type UpdateFolderRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	ParentFolderID *uint   `json:"parent_folder_id"`
}
