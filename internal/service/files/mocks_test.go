package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"nimbus/internal/domain"
	"nimbus/internal/domain/models"
	"nimbus/internal/storage"
	"nimbus/internal/thumbnail"
)

// memNodeRepo is an in-memory NodeRepository for service tests.
type memNodeRepo struct {
	mu    sync.Mutex
	nodes map[string]*models.Node

	createErr error // forced failure for commit-rollback tests
	deleteErr error
}

func newMemNodeRepo() *memNodeRepo {
	return &memNodeRepo{nodes: make(map[string]*models.Node)}
}

func (r *memNodeRepo) put(n *models.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.nodes[n.ID] = &cp
}

func (r *memNodeRepo) get(id string) *models.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[id]; ok {
		cp := *n
		return &cp
	}
	return nil
}

func (r *memNodeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

func (r *memNodeRepo) Create(ctx context.Context, node *models.Node) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the store's UNIQUE(owner_id, path) constraint.
	for _, n := range r.nodes {
		if n.OwnerID == node.OwnerID && n.Path == node.Path {
			return domain.Conflict(domain.KindNameTaken, "path %q already exists", node.Path)
		}
	}

	cp := *node
	r.nodes[node.ID] = &cp
	return nil
}

func (r *memNodeRepo) GetByID(ctx context.Context, ownerID, id string) (*models.Node, error) {
	n := r.get(id)
	if n == nil || n.OwnerID != ownerID {
		return nil, domain.NotFound(domain.KindFileNotFound, "node %s", id)
	}
	return n, nil
}

func (r *memNodeRepo) FindByPath(ctx context.Context, ownerID, path string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.OwnerID == ownerID && n.Path == path {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memNodeRepo) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var children []models.Node
	for _, n := range r.nodes {
		if n.OwnerID != ownerID {
			continue
		}
		if (parentID == nil) != (n.ParentID == nil) {
			continue
		}
		if parentID != nil && *n.ParentID != *parentID {
			continue
		}
		children = append(children, *n)
	}

	sort.Slice(children, func(i, j int) bool {
		return children[i].CreatedAt.After(children[j].CreatedAt)
	})
	return children, nil
}

func (r *memNodeRepo) GetWithDescendants(ctx context.Context, ownerID, id string) ([]models.Node, error) {
	root, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	collected := []models.Node{*root}
	visited := map[string]bool{root.ID: true}
	frontier := []string{root.ID}

	for len(frontier) > 0 {
		var next []string
		for _, parentID := range frontier {
			children, _ := r.ListChildren(ctx, ownerID, &parentID)
			for _, child := range children {
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				collected = append(collected, child)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	return collected, nil
}

func (r *memNodeRepo) UpdateFilename(ctx context.Context, ownerID, id, newName string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, domain.NotFound(domain.KindFileNotFound, "node %s", id)
	}
	n.Filename = newName
	cp := *n
	return &cp, nil
}

func (r *memNodeRepo) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, id := range ids {
		if n, ok := r.nodes[id]; ok && n.OwnerID == ownerID {
			delete(r.nodes, id)
			count++
		}
	}
	return count, nil
}

// memBlobStore is an in-memory BlobStore that records removals.
type memBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	removed []string
	saveErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Save(name string, r io.Reader, maxSize int64) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return 0, fmt.Errorf("save %s: %w", name, storage.ErrTooLarge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = data
	return int64(len(data)), nil
}

func (s *memBlobStore) Open(name string) (io.ReadSeekCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", name)
	}
	return nopSeekCloser{bytes.NewReader(data)}, nil
}

func (s *memBlobStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, name)
	s.removed = append(s.removed, name)
	return nil
}

func (s *memBlobStore) FilePath(name string) string { return "/mem/" + name }

func (s *memBlobStore) removeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.removed)
}

func (s *memBlobStore) blobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

// mockGenerator simulates thumbnailing; mimetypes listed in failFor fail.
type mockGenerator struct {
	mu        sync.Mutex
	failFor   map[string]bool
	generated []string
}

func (g *mockGenerator) StrategyFor(mimetype string) (thumbnail.Strategy, bool) {
	switch {
	case len(mimetype) >= 6 && mimetype[:6] == "image/":
		return thumbnail.StrategyImage, true
	case len(mimetype) >= 6 && mimetype[:6] == "video/":
		return thumbnail.StrategyVideo, true
	}
	return "", false
}

func (g *mockGenerator) Generate(ctx context.Context, src, dst, mimetype string) error {
	if g.failFor[mimetype] {
		return fmt.Errorf("cannot decode %s", mimetype)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generated = append(g.generated, dst)
	return nil
}
