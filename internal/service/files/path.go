package files

import (
	"strings"

	"nimbus/internal/config"
	"nimbus/internal/domain"
	"nimbus/internal/domain/services"
)

// Canonical paths are absolute, slash-separated strings like "/a/b/c".
// The root is the absence of a path: it has no node row, so no path string.
// Callers supply already-decoded segments; no "..", duplicate-slash or
// percent-encoding normalization happens here.

// ChildPath computes the canonical path for a child named name under
// parentPath (nil = root).
func ChildPath(parentPath *string, name string) string {
	if parentPath == nil {
		return "/" + name
	}
	return *parentPath + "/" + name
}

// ParentOf returns the canonical path of the direct parent, nil when the
// node is a direct child of the root.
func ParentOf(path string) *string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return nil
	}
	parent := path[:idx]
	return &parent
}

// Breadcrumbs returns one navigation segment per ancestor, from the root
// down to the direct parent, exclusive of the node itself.
func Breadcrumbs(path string) []services.Breadcrumb {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) < 2 {
		return nil
	}

	crumbs := make([]services.Breadcrumb, 0, len(segments)-1)
	prefix := ""
	for _, segment := range segments[:len(segments)-1] {
		prefix += "/" + segment
		crumbs = append(crumbs, services.Breadcrumb{Name: segment, Path: prefix})
	}
	return crumbs
}

// ValidateName checks a user-supplied display name and returns its trimmed
// form. Names must be non-empty after trimming, slash-free and within the
// length cap.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domain.BadRequest(domain.KindInvalidName, "name is empty")
	}
	if strings.ContainsRune(trimmed, '/') {
		return "", domain.BadRequest(domain.KindInvalidName, "name contains '/'")
	}
	if len(trimmed) > config.MaxNameLength {
		return "", domain.BadRequest(domain.KindInvalidName, "name exceeds %d characters", config.MaxNameLength)
	}
	return trimmed, nil
}

// ValidatePath checks that a client-supplied path is well-formed: absolute,
// within the length cap, and free of empty or relative segments.
func ValidatePath(path string) error {
	if path == "" || path[0] != '/' {
		return domain.BadRequest(domain.KindInvalidPath, "path must be absolute")
	}
	if len(path) > config.MaxPathLength {
		return domain.BadRequest(domain.KindInvalidPath, "path exceeds %d characters", config.MaxPathLength)
	}
	for _, segment := range strings.Split(path[1:], "/") {
		if segment == "" || segment == "." || segment == ".." {
			return domain.BadRequest(domain.KindInvalidPath, "path contains invalid segment %q", segment)
		}
	}
	return nil
}
