package files

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"nimbus/internal/domain"
	"nimbus/internal/domain/models"
	"nimbus/internal/domain/services"
)

const testOwner = "11111111-1111-4111-8111-111111111111"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	repo   *memNodeRepo
	blobs  *memBlobStore
	thumbs *memBlobStore
	svc    services.FileService
}

func newFixture() *fixture {
	repo := newMemNodeRepo()
	blobs := newMemBlobStore()
	thumbs := newMemBlobStore()
	return &fixture{
		repo:   repo,
		blobs:  blobs,
		thumbs: thumbs,
		svc:    NewService(repo, blobs, thumbs, discardLogger()),
	}
}

func (f *fixture) addDir(id, path string, parentID *string, at time.Time) *models.Node {
	n := &models.Node{
		ID:        id,
		OwnerID:   testOwner,
		Type:      models.NodeTypeDir,
		Path:      path,
		Filename:  path[lastSlash(path)+1:],
		ParentID:  parentID,
		CreatedAt: at,
	}
	f.repo.put(n)
	return n
}

func (f *fixture) addFile(id, path, fsname string, parentID *string, thumb *string, at time.Time) *models.Node {
	n := &models.Node{
		ID:        id,
		OwnerID:   testOwner,
		Type:      models.NodeTypeFile,
		Path:      path,
		Filename:  path[lastSlash(path)+1:],
		ParentID:  parentID,
		CreatedAt: at,
		File: &models.FileAttrs{
			FSName:        fsname,
			Mimetype:      "image/jpeg",
			Size:          42,
			ThumbnailPath: thumb,
		},
	}
	f.repo.put(n)
	f.blobs.blobs[fsname] = []byte("blob")
	if thumb != nil {
		f.thumbs.blobs[*thumb] = []byte("thumb")
	}
	return n
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func TestCreateDirectoryThenList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.CreateDirectory(ctx, testOwner, &services.CreateDirectoryRequest{Name: "Photos"})
	if err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	if created.Type != models.NodeTypeDir || created.Path != "/Photos" {
		t.Errorf("created = %+v", created)
	}

	listing, err := f.svc.ListDirectory(ctx, testOwner, nil)
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	if listing.Current != nil {
		t.Error("root listing has a current node")
	}

	var matches int
	for _, n := range listing.Files {
		if n.Filename == "Photos" && n.Type == models.NodeTypeDir {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("new directory listed %d times, want exactly 1", matches)
	}
}

func TestListDirectoryOrdering(t *testing.T) {
	f := newFixture()
	base := time.Now()
	f.addDir("d1", "/old", nil, base.Add(-2*time.Hour))
	f.addDir("d2", "/new", nil, base)
	f.addDir("d3", "/mid", nil, base.Add(-time.Hour))

	listing, err := f.svc.ListDirectory(context.Background(), testOwner, nil)
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}

	got := make([]string, len(listing.Files))
	for i, n := range listing.Files {
		got[i] = n.Path
	}
	want := []string{"/new", "/mid", "/old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("listing order = %v, want %v", got, want)
		}
	}
}

func TestListDirectoryErrors(t *testing.T) {
	f := newFixture()
	f.addFile("f1", "/notes.txt", "blob-1", nil, nil, time.Now())
	ctx := context.Background()

	t.Run("missing path", func(t *testing.T) {
		_, err := f.svc.ListDirectory(ctx, testOwner, strPtr("/nope"))
		if domain.KindOf(err) != domain.KindDirNotFound {
			t.Errorf("kind = %s, want DIR_NOT_FOUND", domain.KindOf(err))
		}
	})

	t.Run("path resolves to a file", func(t *testing.T) {
		_, err := f.svc.ListDirectory(ctx, testOwner, strPtr("/notes.txt"))
		if domain.KindOf(err) != domain.KindNotADir {
			t.Errorf("kind = %s, want NOT_A_DIR", domain.KindOf(err))
		}
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		_, err := f.svc.ListDirectory(ctx, "22222222-2222-4222-8222-222222222222", strPtr("/notes.txt"))
		if domain.KindOf(err) != domain.KindDirNotFound {
			t.Errorf("kind = %s, want DIR_NOT_FOUND", domain.KindOf(err))
		}
	})
}

func TestListDirectoryBreadcrumbs(t *testing.T) {
	f := newFixture()
	now := time.Now()
	a := f.addDir("a", "/a", nil, now)
	b := f.addDir("b", "/a/b", &a.ID, now)
	f.addDir("c", "/a/b/c", &b.ID, now)

	listing, err := f.svc.ListDirectory(context.Background(), testOwner, strPtr("/a/b/c"))
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	if len(listing.Breadcrumbs) != 2 {
		t.Fatalf("got %d breadcrumbs, want 2", len(listing.Breadcrumbs))
	}
	if listing.Breadcrumbs[1].Path != "/a/b" {
		t.Errorf("last crumb = %+v", listing.Breadcrumbs[1])
	}
}

func TestCreateDirectoryErrors(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.addFile("f1", "/doc.pdf", "blob-doc", nil, nil, now)
	f.addDir("d1", "/Photos", nil, now)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *services.CreateDirectoryRequest
		want domain.Kind
	}{
		{"missing target", &services.CreateDirectoryRequest{Path: strPtr("/nope"), Name: "x"}, domain.KindTargetNotFound},
		{"target is a file", &services.CreateDirectoryRequest{Path: strPtr("/doc.pdf"), Name: "x"}, domain.KindWrongTarget},
		{"empty name", &services.CreateDirectoryRequest{Name: "   "}, domain.KindInvalidName},
		{"slash in name", &services.CreateDirectoryRequest{Name: "a/b"}, domain.KindInvalidName},
		{"duplicate sibling", &services.CreateDirectoryRequest{Name: "Photos"}, domain.KindNameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateDirectory(ctx, testOwner, tt.req)
			if domain.KindOf(err) != tt.want {
				t.Errorf("kind = %s, want %s", domain.KindOf(err), tt.want)
			}
		})
	}

	// No partial writes from any failed attempt
	if f.repo.count() != 2 {
		t.Errorf("node count = %d, want 2", f.repo.count())
	}
}

func TestRename(t *testing.T) {
	f := newFixture()
	f.addFile("f1", "/draft.txt", "blob-draft", nil, nil, time.Now())
	ctx := context.Background()

	t.Run("success updates filename only", func(t *testing.T) {
		node, err := f.svc.Rename(ctx, testOwner, "f1", "  final.txt ")
		if err != nil {
			t.Fatalf("Rename failed: %v", err)
		}
		if node.Filename != "final.txt" {
			t.Errorf("filename = %q", node.Filename)
		}
		// The denormalized path is intentionally left stale.
		if node.Path != "/draft.txt" {
			t.Errorf("path = %q, want unchanged /draft.txt", node.Path)
		}
	})

	t.Run("blank name leaves the row unchanged", func(t *testing.T) {
		before := f.repo.get("f1")
		_, err := f.svc.Rename(ctx, testOwner, "f1", "   ")
		if domain.KindOf(err) != domain.KindInvalidName {
			t.Fatalf("kind = %s, want INVALID_NAME", domain.KindOf(err))
		}
		after := f.repo.get("f1")
		if before.Filename != after.Filename {
			t.Error("row was modified by a failed rename")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.svc.Rename(ctx, testOwner, "ghost", "x")
		if domain.KindOf(err) != domain.KindFileNotFound {
			t.Errorf("kind = %s, want FILE_NOT_FOUND", domain.KindOf(err))
		}
	})
}

func TestCreateDirectoryAfterRenameHitsReservedPath(t *testing.T) {
	// Rename updates the display name only, so the store still holds the
	// directory under its original path. Recreating that name reports
	// NAME_TAKEN even though no sibling visibly carries it.
	f := newFixture()
	f.addDir("d1", "/A", nil, time.Now())
	ctx := context.Background()

	if _, err := f.svc.Rename(ctx, testOwner, "d1", "B"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	_, err := f.svc.CreateDirectory(ctx, testOwner, &services.CreateDirectoryRequest{Name: "A"})
	if domain.KindOf(err) != domain.KindNameTaken {
		t.Fatalf("kind = %s, want NAME_TAKEN", domain.KindOf(err))
	}
	if f.repo.count() != 1 {
		t.Errorf("node count = %d, want 1", f.repo.count())
	}
}

func TestDeleteRecursiveSubtree(t *testing.T) {
	f := newFixture()
	now := time.Now()
	root := f.addDir("dir", "/Photos", nil, now)
	sub := f.addDir("sub", "/Photos/2024", &root.ID, now)
	thumb := "thumb-pic.jpg"
	f.addFile("pic", "/Photos/2024/pic.jpg", "blob-pic", &sub.ID, &thumb, now)
	f.addFile("clip", "/Photos/clip.mp4", "blob-clip", &root.ID, nil, now)

	count, err := f.svc.DeleteRecursive(context.Background(), testOwner, "dir")
	if err != nil {
		t.Fatalf("DeleteRecursive failed: %v", err)
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}
	if f.repo.count() != 0 {
		t.Errorf("%d rows left behind", f.repo.count())
	}
	if f.blobs.blobCount() != 0 {
		t.Errorf("%d blobs left behind", f.blobs.blobCount())
	}
	if f.thumbs.blobCount() != 0 {
		t.Errorf("%d thumbnails left behind", f.thumbs.blobCount())
	}
}

func TestDeleteLeafFile(t *testing.T) {
	f := newFixture()
	thumb := "thumb-one.jpg"
	f.addFile("one", "/one.png", "blob-one", nil, &thumb, time.Now())

	count, err := f.svc.DeleteRecursive(context.Background(), testOwner, "one")
	if err != nil {
		t.Fatalf("DeleteRecursive failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if got := f.blobs.removeCount(); got != 1 {
		t.Errorf("blob unlinks = %d, want exactly 1", got)
	}
	if got := f.thumbs.removeCount(); got != 1 {
		t.Errorf("thumbnail unlinks = %d, want exactly 1", got)
	}
}

func TestDeleteRecursiveUnknownID(t *testing.T) {
	f := newFixture()
	_, err := f.svc.DeleteRecursive(context.Background(), testOwner, "ghost")
	if domain.KindOf(err) != domain.KindFileNotFound {
		t.Errorf("kind = %s, want FILE_NOT_FOUND", domain.KindOf(err))
	}
}

// racingDeleteRepo simulates a concurrent delete landing between the
// descendant fetch and the batched row delete.
type racingDeleteRepo struct {
	*memNodeRepo
}

func (r *racingDeleteRepo) GetWithDescendants(ctx context.Context, ownerID, id string) ([]models.Node, error) {
	nodes, err := r.memNodeRepo.GetWithDescendants(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	// The race: every row vanishes before our DeleteMany runs.
	ids := make([]string, len(nodes))
	for i := range nodes {
		ids[i] = nodes[i].ID
	}
	r.memNodeRepo.DeleteMany(ctx, ownerID, ids)
	return nodes, nil
}

func TestDeleteRecursiveIdempotentUnderRace(t *testing.T) {
	repo := &racingDeleteRepo{newMemNodeRepo()}
	blobs := newMemBlobStore()
	thumbs := newMemBlobStore()
	svc := NewService(repo, blobs, thumbs, discardLogger())

	repo.put(&models.Node{
		ID: "dir", OwnerID: testOwner, Type: models.NodeTypeDir,
		Path: "/x", Filename: "x", CreatedAt: time.Now(),
	})

	count, err := svc.DeleteRecursive(context.Background(), testOwner, "dir")
	if err != nil {
		t.Fatalf("DeleteRecursive errored on already-deleted rows: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestGetFile(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.addDir("d1", "/stuff", nil, now)
	f.addFile("f1", "/pic.jpg", "blob-pic", nil, nil, now)
	ctx := context.Background()

	if _, err := f.svc.GetFile(ctx, testOwner, "f1"); err != nil {
		t.Errorf("GetFile failed for a file: %v", err)
	}

	_, err := f.svc.GetFile(ctx, testOwner, "d1")
	if domain.KindOf(err) != domain.KindNotAFile {
		t.Errorf("kind = %s, want NOT_A_FILE", domain.KindOf(err))
	}

	_, err = f.svc.GetFile(ctx, testOwner, "ghost")
	if domain.KindOf(err) != domain.KindFileNotFound {
		t.Errorf("kind = %s, want FILE_NOT_FOUND", domain.KindOf(err))
	}
}
