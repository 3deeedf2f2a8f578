package models

import (
	"encoding/json"
	"time"
)

// NodeType discriminates the two node variants.
type NodeType string

const (
	NodeTypeDir  NodeType = "DIR"
	NodeTypeFile NodeType = "FILE"
)

// FileAttrs holds the attributes that only exist on FILE nodes.
// All of them are captured at upload time and immutable afterwards,
// except ThumbnailPath which may be backfilled.
type FileAttrs struct {
	// FSName is the on-disk storage name. It is generated at upload time
	// and never changes, so user-visible renames never touch the blob.
	FSName        string
	Mimetype      string
	Size          int64
	ThumbnailPath *string
}

// Node is a single entry in an owner's file tree: either a directory or an
// uploaded file. File is nil for DIR nodes, set for FILE nodes - the two
// variants share a table but not an attribute set.
type Node struct {
	ID       string
	OwnerID  string
	Type     NodeType
	Path     string
	Filename string
	// ParentID references the containing DIR node, nil at root level.
	ParentID  *string
	CreatedAt time.Time
	File      *FileAttrs
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Type == NodeTypeDir }

// HasThumbnail reports whether a thumbnail was generated for this node.
func (n *Node) HasThumbnail() bool {
	return n.File != nil && n.File.ThumbnailPath != nil
}

// MarshalJSON flattens the node to the wire shape the clients consume:
// FILE nodes carry fsname/mimetype/size/thumbnailPath/hasThumbnail,
// DIR nodes only the common fields.
func (n *Node) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"id":        n.ID,
		"type":      n.Type,
		"path":      n.Path,
		"filename":  n.Filename,
		"parentId":  n.ParentID,
		"createdAt": n.CreatedAt.UTC().Format(time.RFC3339),
	}

	if n.File != nil {
		m["fsname"] = n.File.FSName
		m["mimetype"] = n.File.Mimetype
		m["size"] = n.File.Size
		m["thumbnailPath"] = n.File.ThumbnailPath
		m["hasThumbnail"] = n.File.ThumbnailPath != nil
	}

	return json.Marshal(m)
}
