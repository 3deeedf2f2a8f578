package repositories

import (
	"context"

	"nimbus/internal/domain/models"
)

// NodeRepository defines data access for file-tree nodes. Every operation
// is scoped by ownerID; a node is invisible outside its owner's tree.
type NodeRepository interface {
	// Create persists a new node.
	Create(ctx context.Context, node *models.Node) error

	// GetByID retrieves a node by id, or domain.ErrNotFound.
	GetByID(ctx context.Context, ownerID, id string) (*models.Node, error)

	// FindByPath retrieves the node with the exact canonical path.
	// Returns (nil, nil) when no node matches - absence is not an error here,
	// callers decide what a missing path means for their operation.
	FindByPath(ctx context.Context, ownerID, path string) (*models.Node, error)

	// ListChildren lists the immediate children of parentID (nil = root),
	// newest first.
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error)

	// GetWithDescendants returns the node and every transitive descendant,
	// root node first. Traversal is iterative and bounded; pathological
	// trees fail with TREE_TOO_DEEP instead of exhausting the stack.
	GetWithDescendants(ctx context.Context, ownerID, id string) ([]models.Node, error)

	// UpdateFilename changes the display name only. The denormalized path
	// is left untouched.
	UpdateFilename(ctx context.Context, ownerID, id, newName string) (*models.Node, error)

	// DeleteMany removes all listed nodes in one batch and returns the
	// number of rows actually deleted. Zero is a valid result: a racing
	// delete may have emptied the set already.
	DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error)
}
