package services

import (
	"context"
	"io"

	"nimbus/internal/domain/models"
)

// Breadcrumb is one navigation segment: the display name of an ancestor and
// the canonical path to list it.
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DirectoryListing is the result of listing a directory. Current is nil when
// the root was listed (the root has no node row).
type DirectoryListing struct {
	Current     *models.Node  `json:"currentFile"`
	Files       []models.Node `json:"files"`
	Breadcrumbs []Breadcrumb  `json:"breadcrumbs"`
}

// CreateDirectoryRequest creates a DIR node under the directory at Path
// (nil = root).
type CreateDirectoryRequest struct {
	Path *string `json:"path"`
	Name string  `json:"name"`
}

// FileService orchestrates the tree operations the application exposes.
type FileService interface {
	// ListDirectory resolves path (nil = root) and returns its children,
	// newest first. Fails DIR_NOT_FOUND / NOT_A_DIR.
	ListDirectory(ctx context.Context, ownerID string, path *string) (*DirectoryListing, error)

	// CreateDirectory creates a DIR node. Fails TARGET_NOT_FOUND /
	// WRONG_TARGET / INVALID_NAME / NAME_TAKEN.
	CreateDirectory(ctx context.Context, ownerID string, req *CreateDirectoryRequest) (*models.Node, error)

	// Rename updates the display filename only. Fails FILE_NOT_FOUND /
	// INVALID_NAME.
	Rename(ctx context.Context, ownerID, id, newName string) (*models.Node, error)

	// DeleteRecursive removes the node and all transitive descendants,
	// returning the number of rows removed. Fails FILE_NOT_FOUND when the
	// id resolves to nothing.
	DeleteRecursive(ctx context.Context, ownerID, id string) (int64, error)

	// GetFile resolves a FILE node for serving. Fails FILE_NOT_FOUND for
	// missing ids and NOT_A_FILE for directories.
	GetFile(ctx context.Context, ownerID, id string) (*models.Node, error)
}

// UploadInput is one incoming file in an upload request.
type UploadInput struct {
	Filename string
	Mimetype string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadResult reports the outcome for one file of a batch. Exactly one of
// Node and Err is set; a failed file never fails its siblings.
type UploadResult struct {
	Node *models.Node
	Err  error
}

// UploadService ingests raw file bytes into an owner's tree.
type UploadService interface {
	// Upload stores every input under the directory at path (nil = root),
	// concurrently and independently. Results preserve input order.
	// Fails INVALID_TARGET before any byte is written when the target path
	// does not resolve to a directory.
	Upload(ctx context.Context, ownerID string, path *string, inputs []UploadInput) ([]UploadResult, error)
}
