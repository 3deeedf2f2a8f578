package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"nimbus/internal/domain"
	"nimbus/internal/domain/services"
	"nimbus/internal/httputil"
)

// FileHandler handles tree browsing and node mutations.
type FileHandler struct {
	fileService services.FileService
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService services.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// GetFiles lists a directory. No path parameter means the root.
// GET /api/get-files?path=/Photos
func (h *FileHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	listing, err := h.fileService.ListDirectory(r.Context(), httputil.GetOwnerID(r), httputil.OptionalQuery(r, "path"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// CreateDirectory creates a directory under the target path (absent = root)
// POST /api/create-directory
func (h *FileHandler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	var req services.CreateDirectoryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondKind(w, http.StatusBadRequest, string(domain.KindInvalidRequest))
		return
	}

	if _, err := h.fileService.CreateDirectory(r.Context(), httputil.GetOwnerID(r), &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondSuccess(w)
}

type renameRequest struct {
	ID      string `json:"id"`
	NewName string `json:"newName"`
}

func (r *renameRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, validation.By(validUUID)),
		validation.Field(&r.NewName, validation.Required),
	)
}

type renameResponse struct {
	NewName string `json:"newName"`
}

// RenameFile updates a node's display name
// PUT /api/rename-file
func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondKind(w, http.StatusBadRequest, string(domain.KindInvalidRequest))
		return
	}
	if err := req.validate(); err != nil {
		httputil.RespondKind(w, http.StatusBadRequest, string(domain.KindInvalidRequest))
		return
	}

	node, err := h.fileService.Rename(r.Context(), httputil.GetOwnerID(r), req.ID, req.NewName)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, renameResponse{NewName: node.Filename})
}

// DeleteFile removes a node and its whole subtree
// DELETE /api/delete-file?id=...
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.RespondKind(w, http.StatusBadRequest, string(domain.KindInvalidRequest))
		return
	}

	if _, err := h.fileService.DeleteRecursive(r.Context(), httputil.GetOwnerID(r), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondSuccess(w)
}

func validUUID(value interface{}) error {
	s, _ := value.(string)
	_, err := uuid.Parse(s)
	return err
}
