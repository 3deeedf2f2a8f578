package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"nimbus/internal/domain"
	"nimbus/internal/domain/models"
	"nimbus/internal/domain/services"
	"nimbus/internal/httputil"
)

// multipartMemory is the in-memory buffer for multipart parsing; larger
// uploads spill to temp files.
const multipartMemory = 32 << 20

// UploadHandler handles multipart file uploads.
type UploadHandler struct {
	uploadService services.UploadService
	logger        *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService services.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// uploadedFile is one slot in a batch response: a committed node or the kind
// explaining why that file failed. One bad file never fails its siblings.
type uploadedFile struct {
	File *models.Node `json:"file,omitempty"`
	Kind domain.Kind  `json:"kind,omitempty"`
}

type singleUploadResponse struct {
	File *models.Node `json:"file"`
}

type batchUploadResponse struct {
	Files []uploadedFile `json:"files"`
}

// UploadFile stores one or more files under the target directory
// POST /api/upload-file?path=/Photos  (multipart field "file")
func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		kind := domain.KindInvalidRequest
		// A body that ends before the closing boundary means the client
		// hung up mid-transfer. Nothing was committed.
		if r.Context().Err() != nil || errors.Is(err, io.ErrUnexpectedEOF) {
			kind = domain.KindUploadAborted
		}
		httputil.RespondKind(w, http.StatusBadRequest, string(kind))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	inputs := make([]services.UploadInput, 0, len(headers))
	for _, fh := range headers {
		inputs = append(inputs, uploadInput(fh))
	}

	results, err := h.uploadService.Upload(r.Context(), httputil.GetOwnerID(r), httputil.OptionalQuery(r, "path"), inputs)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if len(results) == 1 {
		if results[0].Err != nil {
			handleError(w, h.logger, results[0].Err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, singleUploadResponse{File: results[0].Node})
		return
	}

	resp := batchUploadResponse{Files: make([]uploadedFile, len(results))}
	for i, res := range results {
		if res.Err != nil {
			resp.Files[i] = uploadedFile{Kind: domain.KindOf(res.Err)}
			continue
		}
		resp.Files[i] = uploadedFile{File: res.Node}
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

func uploadInput(fh *multipart.FileHeader) services.UploadInput {
	return services.UploadInput{
		Filename: fh.Filename,
		Mimetype: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
