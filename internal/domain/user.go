package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrKeyNotFound is returned by storage backends when a key is absent.
	ErrKeyNotFound = errors.New("key not found")
)

// User represents a user account within a tenant. Issued by the identity
// provider and treated as read-only by the preference layer.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
}

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}
