package services

import (
	"context"
	"time"

	"nimbus/internal/domain/models"
)

// Session is a minted sign-in token and its lifetime.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService is the access boundary: it turns credentials into sessions and
// session tokens into owner ids. The rest of the system only ever sees the
// opaque owner id.
type AuthService interface {
	// SignIn verifies credentials and mints a session token.
	// Fails INVALID_CREDENTIALS without revealing which part was wrong.
	SignIn(ctx context.Context, username, password string) (*Session, error)

	// Verify validates a session token and returns the owner it belongs to.
	// Every failure is a uniform UNAUTHORIZED.
	Verify(ctx context.Context, token string) (*models.User, error)
}
