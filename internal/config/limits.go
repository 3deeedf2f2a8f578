package config

import "time"

const (
	// MaxNameLength is the maximum length for display filenames and
	// directory names. Limited to 255 to fit common filesystem and
	// VARCHAR(255) limits.
	MaxNameLength = 255

	// MaxPathLength is the maximum length for a full canonical path.
	// Longer paths indicate overly deep hierarchies.
	MaxPathLength = 4096

	// DefaultMaxUploadBytes caps a single uploaded file at 100MB,
	// overridable via MAX_UPLOAD_BYTES.
	DefaultMaxUploadBytes = 100 << 20

	// MaxTreeDepth bounds descendant traversal. The frontier walk fails
	// with TREE_TOO_DEEP past this many levels rather than scanning an
	// unbounded (or cyclic) tree.
	MaxTreeDepth = 64

	// MaxTreeNodes bounds the total number of nodes a single descendant
	// traversal may collect.
	MaxTreeNodes = 10000

	// SessionTTL is the sign-in token lifetime. Sessions are long-lived;
	// there is no refresh flow.
	SessionTTL = 365 * 24 * time.Hour

	// MaxLogFiles is how many timestamped log files to keep around.
	MaxLogFiles = 10
)
