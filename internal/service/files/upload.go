package files

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"nimbus/internal/domain"
	"nimbus/internal/domain/models"
	"nimbus/internal/domain/repositories"
	"nimbus/internal/domain/services"
	"nimbus/internal/storage"
	"nimbus/internal/thumbnail"
)

// ThumbnailGenerator derives previews for supported mimetypes.
// *thumbnail.Generator is the production implementation.
type ThumbnailGenerator interface {
	StrategyFor(mimetype string) (thumbnail.Strategy, bool)
	Generate(ctx context.Context, src, dst, mimetype string) error
}

type uploadService struct {
	nodes     repositories.NodeRepository
	blobs     storage.BlobStore
	thumbs    storage.BlobStore
	generator ThumbnailGenerator
	maxBytes  int64
	logger    *slog.Logger
}

// NewUploadService creates the upload pipeline. Each file moves through
// receive -> store blob -> thumbnail (best-effort) -> commit metadata, with
// a compensating rollback of the blob and thumbnail when the commit fails.
func NewUploadService(
	nodes repositories.NodeRepository,
	blobs storage.BlobStore,
	thumbs storage.BlobStore,
	generator ThumbnailGenerator,
	maxBytes int64,
	logger *slog.Logger,
) services.UploadService {
	return &uploadService{
		nodes:     nodes,
		blobs:     blobs,
		thumbs:    thumbs,
		generator: generator,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Upload resolves the target directory once, then runs every file through
// the pipeline concurrently. One bad file never fails the batch: results
// carry a node or a typed error per input, in input order.
func (s *uploadService) Upload(ctx context.Context, ownerID string, path *string, inputs []services.UploadInput) ([]services.UploadResult, error) {
	if len(inputs) == 0 {
		return nil, domain.BadRequest(domain.KindNoFile, "no file in request")
	}

	var parentID, parentPath *string

	if path != nil {
		if err := ValidatePath(*path); err != nil {
			return nil, err
		}

		target, err := s.nodes.FindByPath(ctx, ownerID, *path)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, domain.NotFound(domain.KindInvalidTarget, "target %q", *path)
		}
		if !target.IsDir() {
			return nil, domain.BadRequest(domain.KindInvalidTarget, "target %q is not a directory", *path)
		}

		parentID = &target.ID
		parentPath = &target.Path
	}

	results := make([]services.UploadResult, len(inputs))
	var wg sync.WaitGroup

	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			node, err := s.uploadOne(ctx, ownerID, parentID, parentPath, &inputs[i])
			results[i] = services.UploadResult{Node: node, Err: err}
		}(i)
	}

	wg.Wait()
	return results, nil
}

func (s *uploadService) uploadOne(ctx context.Context, ownerID string, parentID, parentPath *string, in *services.UploadInput) (*models.Node, error) {
	// Reject on the declared size before reading a single byte. The store
	// enforces the same cap on the actual stream.
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, domain.TooLarge(s.maxBytes)
	}

	fileID := uuid.NewString()
	fsname := fileID + filepath.Ext(in.Filename)

	rc, err := in.Open()
	if err != nil {
		return nil, domain.Internal(domain.KindUploadFailed, "open upload stream", err)
	}
	defer rc.Close()

	written, err := s.blobs.Save(fsname, rc, s.maxBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return nil, domain.TooLarge(s.maxBytes)
		case ctx.Err() != nil || errors.Is(err, context.Canceled):
			// Client went away mid-stream; the partial blob is already
			// gone and nothing gets committed.
			return nil, domain.BadRequest(domain.KindUploadAborted, "upload aborted")
		default:
			return nil, domain.Internal(domain.KindUploadFailed, "store blob", err)
		}
	}

	thumbnailPath := s.generateThumbnail(ctx, fileID, fsname, in.Mimetype)

	node := &models.Node{
		ID:      fileID,
		OwnerID: ownerID,
		Type:    models.NodeTypeFile,
		// The path leaf is the generated storage name, so sibling uploads
		// of equally-named files never collide.
		Path:      ChildPath(parentPath, fsname),
		Filename:  filepath.Base(in.Filename),
		ParentID:  parentID,
		CreatedAt: time.Now(),
		File: &models.FileAttrs{
			FSName:        fsname,
			Mimetype:      in.Mimetype,
			Size:          written,
			ThumbnailPath: thumbnailPath,
		},
	}

	if err := s.nodes.Create(ctx, node); err != nil {
		// Compensating rollback: never leave a blob with no metadata row.
		if rmErr := s.blobs.Remove(fsname); rmErr != nil {
			s.logger.Error("rollback blob unlink failed", "fsname", fsname, "error", rmErr)
		}
		if thumbnailPath != nil {
			if rmErr := s.thumbs.Remove(*thumbnailPath); rmErr != nil {
				s.logger.Error("rollback thumbnail unlink failed", "thumbnail", *thumbnailPath, "error", rmErr)
			}
		}

		var p *domain.Problem
		if errors.As(err, &p) {
			return nil, err
		}
		return nil, domain.Internal(domain.KindUploadFailed, "commit metadata", err)
	}

	s.logger.Info("file uploaded",
		"id", fileID,
		"owner_id", ownerID,
		"path", node.Path,
		"size", written,
		"mimetype", in.Mimetype,
		"has_thumbnail", thumbnailPath != nil,
	)

	return node, nil
}

// generateThumbnail derives a preview when the mimetype supports one.
// Failures are logged and swallowed: thumbnail absence is a degraded file,
// not a failed upload.
func (s *uploadService) generateThumbnail(ctx context.Context, fileID, fsname, mimetype string) *string {
	if s.generator == nil {
		return nil
	}
	if _, ok := s.generator.StrategyFor(mimetype); !ok {
		return nil
	}

	name := "thumb-" + fileID + ".jpg"
	if err := s.generator.Generate(ctx, s.blobs.FilePath(fsname), s.thumbs.FilePath(name), mimetype); err != nil {
		s.logger.Warn("thumbnail generation failed",
			"id", fileID,
			"mimetype", mimetype,
			"error", err,
		)
		return nil
	}

	return &name
}
