package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/account-auth/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by Create when the email is already registered
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository is the principal store behind login and token resolution
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByEmail matches the email case-insensitively
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories groups the repositories built by a factory
type Repositories struct {
	Users UserRepository
}
