package controller

import "errors"

var (
	ErrParseRequest = errors.New("failed to parse request")

	ErrUserRegister  = errors.New("failed to register user")
	ErrGenerateToken = errors.New("failed to generate token")
	ErrUserLogin     = errors.New("failed to login")

	ErrCreateSession       = errors.New("failed to create a chat session")
	ErrGetSessions         = errors.New("failed to get chat sessions")
	ErrDeleteSession       = errors.New("failed to delete a chat session")
	ErrGetSessionMessages  = errors.New("failed to get session messages")
	ErrUpdateSessionTitle  = errors.New("failed to update session title")
	ErrUpdateSessionFolder = errors.New("failed to update session folder")
	ErrSessionNotFound     = errors.New("session not found")
	ErrFolderNotFound      = errors.New("folder not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")

	ErrCreateFolder  = errors.New("failed to create folder")
	ErrGetFolders    = errors.New("failed to get folders")
	ErrUpdateFolder  = errors.New("failed to update folder")
	ErrArchiveFolder = errors.New("failed to archive folder")
	ErrDeleteFolder  = errors.New("failed to delete folder")

	ErrUploadDocument  = errors.New("failed to upload document")
	ErrGetDocuments    = errors.New("failed to get documents")
	ErrDeleteDocument  = errors.New("failed to delete document")
	ErrMoveDocument    = errors.New("failed to move document")
	ErrGetDownloadLink = errors.New("failed to get download link")

	ErrCallRAG = errors.New("error while answering query")
)
