package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable discriminator carried by every error
// response. Clients switch on it exhaustively; the strings never change.
type Kind string

const (
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindInternal           Kind = "INTERNAL_SERVER_ERROR"
	KindStoreUnavailable   Kind = "STORE_UNAVAILABLE"

	KindDirNotFound    Kind = "DIR_NOT_FOUND"
	KindNotADir        Kind = "NOT_A_DIR"
	KindTargetNotFound Kind = "TARGET_NOT_FOUND"
	KindWrongTarget    Kind = "WRONG_TARGET"
	KindNameTaken      Kind = "NAME_TAKEN"

	KindNoFile        Kind = "NO_FILE"
	KindInvalidTarget Kind = "INVALID_TARGET"
	KindFileTooLarge  Kind = "FILE_TOO_LARGE"
	KindUploadFailed  Kind = "UPLOAD_FAILED"
	KindUploadAborted Kind = "UPLOAD_ABORTED"

	KindFileNotFound      Kind = "FILE_NOT_FOUND"
	KindInvalidName       Kind = "INVALID_NAME"
	KindInvalidPath       Kind = "INVALID_PATH"
	KindThumbnailNotFound Kind = "THUMBNAIL_NOT_FOUND"
	KindNotAFile          Kind = "NOT_A_FILE"
	KindTreeTooDeep       Kind = "TREE_TOO_DEEP"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Problem is a domain error with a stable kind and an HTTP status.
// The message is for logs only; responses carry just the kind.
type Problem struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (p *Problem) Error() string {
	if p.cause != nil {
		return fmt.Sprintf("%s: %s: %v", p.Kind, p.Message, p.cause)
	}
	if p.Message == "" {
		return string(p.Kind)
	}
	return fmt.Sprintf("%s: %s", p.Kind, p.Message)
}

// StatusCode implements the HTTPError interface
func (p *Problem) StatusCode() int { return p.Status }

func (p *Problem) Unwrap() error { return p.cause }

// Is allows errors.Is() to match the category sentinels below.
func (p *Problem) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return p.Status == http.StatusNotFound
	case ErrValidation:
		return p.Status == http.StatusBadRequest
	case ErrConflict:
		return p.Status == http.StatusConflict
	case ErrUnauthorized:
		return p.Status == http.StatusUnauthorized
	case ErrUnavailable:
		return p.Status == http.StatusServiceUnavailable
	}
	return false
}

// Category sentinels - use with errors.Is() when only the class matters.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("store unavailable")
)

// NotFound creates a 404 problem with the given kind.
func NotFound(kind Kind, format string, args ...interface{}) *Problem {
	return &Problem{Kind: kind, Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// BadRequest creates a 400 problem with the given kind.
func BadRequest(kind Kind, format string, args ...interface{}) *Problem {
	return &Problem{Kind: kind, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a 409 problem with the given kind.
func Conflict(kind Kind, format string, args ...interface{}) *Problem {
	return &Problem{Kind: kind, Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates a 401 problem. Every authentication failure maps to
// the same kind so callers cannot distinguish missing from invalid sessions.
func Unauthorized() *Problem {
	return &Problem{Kind: KindUnauthorized, Status: http.StatusUnauthorized}
}

// TooLarge creates a 413 problem for oversized uploads.
func TooLarge(limit int64) *Problem {
	return &Problem{Kind: KindFileTooLarge, Status: http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("upload exceeds %d bytes", limit)}
}

// Unavailable wraps a transport-level store failure. Safe to retry.
func Unavailable(op string, cause error) *Problem {
	return &Problem{Kind: KindStoreUnavailable, Status: http.StatusServiceUnavailable, Message: op, cause: cause}
}

// Internal wraps an unexpected error. The cause is logged server-side and
// never leaks to the caller.
func Internal(kind Kind, op string, cause error) *Problem {
	return &Problem{Kind: kind, Status: http.StatusInternalServerError, Message: op, cause: cause}
}

// KindOf extracts the response kind from any error, falling back to
// INTERNAL_SERVER_ERROR for errors without a domain mapping.
func KindOf(err error) Kind {
	var p *Problem
	if errors.As(err, &p) {
		return p.Kind
	}
	return KindInternal
}
