package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nimbus/internal/config"
	"nimbus/internal/domain"
	"nimbus/internal/domain/models"
	"nimbus/internal/domain/repositories"
)

// nodeColumns is the canonical select list; scanNode must stay in sync.
const nodeColumns = "id, owner_id, parent_id, type, path, filename, fsname, mimetype, size, thumbnail_path, created_at"

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(cfg *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
		logger: cfg.Logger,
	}
}

// Create persists a new node. FILE attributes are stored as NULLs for DIR
// nodes; the variants share a table but not a column set.
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, parent_id, type, path, filename, fsname, mimetype, size, thumbnail_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.tables.Files)

	var fsname, mimetype, thumbnailPath *string
	var size *int64
	if node.File != nil {
		fsname = &node.File.FSName
		mimetype = &node.File.Mimetype
		size = &node.File.Size
		thumbnailPath = node.File.ThumbnailPath
	}

	_, err := r.pool.Exec(ctx, query,
		node.ID,
		node.OwnerID,
		node.ParentID,
		node.Type,
		node.Path,
		node.Filename,
		fsname,
		mimetype,
		size,
		thumbnailPath,
		node.CreatedAt,
	)

	if err != nil {
		return createNodeErr(node, err)
	}

	return nil
}

// createNodeErr maps insert failures onto domain kinds. A foreign key
// violation means the parent directory vanished between resolution and
// insert, so the target is reported gone rather than the store flagged as
// unavailable.
func createNodeErr(node *models.Node, err error) error {
	switch {
	case IsPgDuplicateError(err):
		return domain.Conflict(domain.KindNameTaken, "node %q already exists", node.Filename)
	case IsPgForeignKeyError(err):
		return domain.NotFound(domain.KindTargetNotFound, "parent of %q no longer exists", node.Filename)
	default:
		return storeErr("create node", err)
	}
}

// GetByID retrieves a node by id within an owner's tree.
func (r *PostgresNodeRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND id = $2
	`, nodeColumns, r.tables.Files)

	node, err := scanNode(r.pool.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NotFound(domain.KindFileNotFound, "node %s", id)
		}
		return nil, storeErr("get node", err)
	}

	return node, nil
}

// FindByPath retrieves a node by its exact canonical path.
// Returns (nil, nil) when no node matches.
func (r *PostgresNodeRepository) FindByPath(ctx context.Context, ownerID, path string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND path = $2
	`, nodeColumns, r.tables.Files)

	node, err := scanNode(r.pool.QueryRow(ctx, query, ownerID, path))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil // Not found, not an error
		}
		return nil, storeErr("find node by path", err)
	}

	return node, nil
}

// ListChildren lists immediate children of parentID (nil = root), ordered by
// creation time descending - the sole sort key for directory listings.
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL
			ORDER BY created_at DESC
		`, nodeColumns, r.tables.Files)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id = $2
			ORDER BY created_at DESC
		`, nodeColumns, r.tables.Files)
		args = append(args, ownerID, *parentID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list children", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

// GetWithDescendants returns the node and all transitive descendants, root
// first. The traversal is a breadth-first frontier walk with an explicit
// visited set and depth/node bounds, so a pathological or cyclic tree fails
// with TREE_TOO_DEEP instead of recursing without limit.
func (r *PostgresNodeRepository) GetWithDescendants(ctx context.Context, ownerID, id string) ([]models.Node, error) {
	root, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND parent_id = ANY($2)
		ORDER BY created_at DESC
	`, nodeColumns, r.tables.Files)

	return collectDescendants(root, func(frontier []string) ([]models.Node, error) {
		rows, err := r.pool.Query(ctx, query, ownerID, frontier)
		if err != nil {
			return nil, storeErr("list descendants", err)
		}
		return collectNodes(rows)
	})
}

// collectDescendants runs the bounded frontier walk. expand returns the
// combined children of every node in the frontier. The visited set makes a
// cyclic parent link terminate instead of revisiting rows forever; the depth
// and node caps turn runaway trees into TREE_TOO_DEEP.
func collectDescendants(root *models.Node, expand func(frontier []string) ([]models.Node, error)) ([]models.Node, error) {
	collected := []models.Node{*root}
	visited := map[string]bool{root.ID: true}
	frontier := []string{root.ID}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= config.MaxTreeDepth {
			return nil, domain.Internal(domain.KindTreeTooDeep,
				fmt.Sprintf("descendant traversal of %s exceeded depth %d", root.ID, config.MaxTreeDepth), nil)
		}

		children, err := expand(frontier)
		if err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			collected = append(collected, child)
			frontier = append(frontier, child.ID)

			if len(collected) > config.MaxTreeNodes {
				return nil, domain.Internal(domain.KindTreeTooDeep,
					fmt.Sprintf("descendant traversal of %s exceeded %d nodes", root.ID, config.MaxTreeNodes), nil)
			}
		}
	}

	return collected, nil
}

// UpdateFilename changes the display filename only. The denormalized path
// column is deliberately not recomputed here.
func (r *PostgresNodeRepository) UpdateFilename(ctx context.Context, ownerID, id, newName string) (*models.Node, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET filename = $3
		WHERE owner_id = $1 AND id = $2
		RETURNING %s
	`, r.tables.Files, nodeColumns)

	node, err := scanNode(r.pool.QueryRow(ctx, query, ownerID, id, newName))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NotFound(domain.KindFileNotFound, "node %s", id)
		}
		if IsPgDuplicateError(err) {
			return nil, domain.Conflict(domain.KindNameTaken, "node %q already exists", newName)
		}
		return nil, storeErr("update filename", err)
	}

	return node, nil
}

// DeleteMany removes the listed nodes in one batch. A count lower than
// len(ids) - including zero - is a valid outcome when a racing delete got
// there first.
func (r *PostgresNodeRepository) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = $1 AND id = ANY($2)
	`, r.tables.Files)

	result, err := r.pool.Exec(ctx, query, ownerID, ids)
	if err != nil {
		return 0, storeErr("delete nodes", err)
	}

	return result.RowsAffected(), nil
}

// scanNode scans a single row in nodeColumns order, folding the nullable
// FILE-only columns into FileAttrs.
func scanNode(row pgx.Row) (*models.Node, error) {
	var n models.Node
	var fsname, mimetype, thumbnailPath *string
	var size *int64

	err := row.Scan(
		&n.ID,
		&n.OwnerID,
		&n.ParentID,
		&n.Type,
		&n.Path,
		&n.Filename,
		&fsname,
		&mimetype,
		&size,
		&thumbnailPath,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if n.Type == models.NodeTypeFile {
		attrs := &models.FileAttrs{ThumbnailPath: thumbnailPath}
		if fsname != nil {
			attrs.FSName = *fsname
		}
		if mimetype != nil {
			attrs.Mimetype = *mimetype
		}
		if size != nil {
			attrs.Size = *size
		}
		n.File = attrs
	}

	return &n, nil
}

func collectNodes(rows pgx.Rows) ([]models.Node, error) {
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, storeErr("scan node", err)
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate nodes", err)
	}

	return nodes, nil
}
