package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	ownerIDKey  contextKey = "ownerID"
	usernameKey contextKey = "username"
)

// WithOwner adds the authenticated owner to the request context.
func WithOwner(r *http.Request, ownerID, username string) *http.Request {
	ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
	ctx = context.WithValue(ctx, usernameKey, username)
	return r.WithContext(ctx)
}

// GetOwnerID retrieves the owner id from context, empty string if absent.
func GetOwnerID(r *http.Request) string {
	ownerID, _ := r.Context().Value(ownerIDKey).(string)
	return ownerID
}

// GetUsername retrieves the session username from context.
func GetUsername(r *http.Request) string {
	username, _ := r.Context().Value(usernameKey).(string)
	return username
}
