package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/user-platform/services/users/internal/domain"
)

// UserStore defines the contract for user persistence. Every implementation
// reports the same error kinds for the same logical conditions.
type UserStore interface {
	GetAll(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, u domain.CreateUser) (domain.User, error)
	// Update replaces email, name, birth_date and custom_data of the user
	// with u.ID. created_at is preserved and updated_at is set to now.
	Update(ctx context.Context, u domain.User) (domain.User, error)
	// Delete removes the user if present and echoes id. An absent id is not
	// an error.
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
