package files

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nimbus/internal/domain"
	"nimbus/internal/domain/models"
	"nimbus/internal/domain/repositories"
	"nimbus/internal/domain/services"
	"nimbus/internal/storage"
)

type service struct {
	nodes  repositories.NodeRepository
	blobs  storage.BlobStore
	thumbs storage.BlobStore
	logger *slog.Logger
}

// NewService creates the file service. blobs holds uploaded bytes, thumbs
// holds derived previews; both are unlinked on cascading delete.
func NewService(
	nodes repositories.NodeRepository,
	blobs storage.BlobStore,
	thumbs storage.BlobStore,
	logger *slog.Logger,
) services.FileService {
	return &service{
		nodes:  nodes,
		blobs:  blobs,
		thumbs: thumbs,
		logger: logger,
	}
}

// ListDirectory resolves path (nil = root, which has no node row) and
// returns its children newest first.
func (s *service) ListDirectory(ctx context.Context, ownerID string, path *string) (*services.DirectoryListing, error) {
	var current *models.Node
	var parentID *string

	if path != nil {
		if err := ValidatePath(*path); err != nil {
			return nil, err
		}

		node, err := s.nodes.FindByPath(ctx, ownerID, *path)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, domain.NotFound(domain.KindDirNotFound, "directory %q", *path)
		}
		if !node.IsDir() {
			return nil, domain.BadRequest(domain.KindNotADir, "%q is not a directory", *path)
		}

		current = node
		parentID = &node.ID
	}

	children, err := s.nodes.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []models.Node{}
	}

	listing := &services.DirectoryListing{
		Current: current,
		Files:   children,
	}
	if current != nil {
		listing.Breadcrumbs = Breadcrumbs(current.Path)
	}

	return listing, nil
}

// CreateDirectory creates a DIR node under the directory at req.Path
// (nil = root). Sibling directories must have distinct names.
func (s *service) CreateDirectory(ctx context.Context, ownerID string, req *services.CreateDirectoryRequest) (*models.Node, error) {
	name, err := ValidateName(req.Name)
	if err != nil {
		return nil, err
	}

	var target *models.Node
	var parentID, parentPath *string

	if req.Path != nil {
		if err := ValidatePath(*req.Path); err != nil {
			return nil, err
		}

		target, err = s.nodes.FindByPath(ctx, ownerID, *req.Path)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, domain.NotFound(domain.KindTargetNotFound, "target %q", *req.Path)
		}
		if !target.IsDir() {
			return nil, domain.BadRequest(domain.KindWrongTarget, "target %q is not a directory", *req.Path)
		}

		parentID = &target.ID
		parentPath = &target.Path
	}

	// Application-level duplicate guard; the store's partial unique indexes
	// back it up under races. The path constraint can still reject a name
	// the listing does not show: a renamed directory keeps its original
	// path reserved until deleted.
	siblings, err := s.nodes.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}
	for i := range siblings {
		if siblings[i].Filename == name {
			return nil, domain.Conflict(domain.KindNameTaken, "%q already exists here", name)
		}
	}

	node := &models.Node{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Type:      models.NodeTypeDir,
		Path:      ChildPath(parentPath, name),
		Filename:  name,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}

	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("directory created",
		"id", node.ID,
		"owner_id", ownerID,
		"path", node.Path,
	)

	return node, nil
}

// Rename updates the display filename only. The denormalized path column is
// deliberately left stale: fsname decouples storage from display names, and
// cascading a path rewrite through every descendant is an open product
// question, not something to fix silently here.
func (s *service) Rename(ctx context.Context, ownerID, id, newName string) (*models.Node, error) {
	name, err := ValidateName(newName)
	if err != nil {
		return nil, err
	}

	node, err := s.nodes.UpdateFilename(ctx, ownerID, id, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("node renamed", "id", id, "owner_id", ownerID, "filename", name)

	return node, nil
}

// DeleteRecursive removes a node and every transitive descendant. Metadata
// rows go first in one batch, then blobs and thumbnails are unlinked
// best-effort: a crash mid-way orphans blobs (easy to garbage-collect),
// never metadata rows pointing at deleted blobs.
func (s *service) DeleteRecursive(ctx context.Context, ownerID, id string) (int64, error) {
	descendants, err := s.nodes.GetWithDescendants(ctx, ownerID, id)
	if err != nil {
		return 0, err
	}

	ids := make([]string, len(descendants))
	for i := range descendants {
		ids[i] = descendants[i].ID
	}

	// A racing delete may have removed any subset already; zero rows is
	// still success.
	count, err := s.nodes.DeleteMany(ctx, ownerID, ids)
	if err != nil {
		return 0, err
	}

	for i := range descendants {
		node := &descendants[i]
		if node.File == nil {
			continue
		}
		if err := s.blobs.Remove(node.File.FSName); err != nil {
			s.logger.Error("blob unlink failed", "id", node.ID, "fsname", node.File.FSName, "error", err)
		}
		if node.File.ThumbnailPath != nil {
			if err := s.thumbs.Remove(*node.File.ThumbnailPath); err != nil {
				s.logger.Error("thumbnail unlink failed", "id", node.ID, "thumbnail", *node.File.ThumbnailPath, "error", err)
			}
		}
	}

	s.logger.Info("subtree deleted",
		"id", id,
		"owner_id", ownerID,
		"rows", count,
	)

	return count, nil
}

// GetFile resolves a FILE node for serving.
func (s *service) GetFile(ctx context.Context, ownerID, id string) (*models.Node, error) {
	node, err := s.nodes.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if node.IsDir() {
		return nil, domain.NotFound(domain.KindNotAFile, "node %s is a directory", id)
	}
	return node, nil
}
