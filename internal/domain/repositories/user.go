package repositories

import (
	"context"

	"nimbus/internal/domain/models"
)

// UserRepository defines data access for accounts.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by id, or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByUsername retrieves a user by username, or domain.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
