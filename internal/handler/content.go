package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"time"

	"nimbus/internal/domain"
	"nimbus/internal/domain/services"
	"nimbus/internal/httputil"
	"nimbus/internal/storage"
)

// ContentHandler serves file bytes: thumbnails, inline previews and
// downloads. Bytes always come out of the stores, never from client paths.
type ContentHandler struct {
	fileService services.FileService
	blobs       storage.BlobStore
	thumbs      storage.BlobStore
	logger      *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(fileService services.FileService, blobs, thumbs storage.BlobStore, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		fileService: fileService,
		blobs:       blobs,
		thumbs:      thumbs,
		logger:      logger,
	}
}

// Thumbnail serves the derived preview image
// GET /api/thumbnail/{id}
func (h *ContentHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	node, err := h.fileService.GetFile(r.Context(), httputil.GetOwnerID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if !node.HasThumbnail() {
		httputil.RespondKind(w, http.StatusNotFound, string(domain.KindThumbnailNotFound))
		return
	}

	rsc, err := h.thumbs.Open(*node.File.ThumbnailPath)
	if err != nil {
		h.logger.Error("thumbnail blob missing", "id", node.ID, "thumbnail", *node.File.ThumbnailPath, "error", err)
		httputil.RespondKind(w, http.StatusNotFound, string(domain.KindThumbnailNotFound))
		return
	}
	defer rsc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, *node.File.ThumbnailPath, node.CreatedAt, rsc)
}

// Preview serves the original bytes inline with the stored mimetype
// GET /api/preview/{id}
func (h *ContentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, false)
}

// Download serves the original bytes as an attachment named after the
// display filename
// GET /api/download/{id}
func (h *ContentHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, true)
}

func (h *ContentHandler) serveBlob(w http.ResponseWriter, r *http.Request, attachment bool) {
	node, err := h.fileService.GetFile(r.Context(), httputil.GetOwnerID(r), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	rsc, err := h.blobs.Open(node.File.FSName)
	if err != nil {
		h.logger.Error("blob missing for committed node", "id", node.ID, "fsname", node.File.FSName, "error", err)
		httputil.RespondKind(w, http.StatusNotFound, string(domain.KindFileNotFound))
		return
	}
	defer rsc.Close()

	if node.File.Mimetype != "" {
		w.Header().Set("Content-Type", node.File.Mimetype)
	}
	if attachment {
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": node.Filename})
		w.Header().Set("Content-Disposition", disposition)
	}

	// ServeContent gets the stored fsname, not the display name, so its own
	// mimetype sniffing never overrides the stored type.
	http.ServeContent(w, r, node.File.FSName, time.Time{}, rsc)
}
