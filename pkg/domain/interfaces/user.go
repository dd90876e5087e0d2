package interfaces

import (
	"context"

	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

// UserRepository defines the interface for User data access
type UserRepository interface {
	// Create inserts a new user with auto-generated ID. Returns
	// ErrAlreadyExists when the email is already taken.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// GetByID retrieves a user by ID. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id types.UserID) (*model.User, error)

	// GetByEmail retrieves a user by unique email. Returns ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update applies a partial update. Returns ErrNotFound when absent.
	Update(ctx context.Context, id types.UserID, update *model.UserUpdate) (*model.User, error)

	// List retrieves users ordered by ID with offset/limit pagination
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
}

// TokenRepository defines the interface for APIToken data access
type TokenRepository interface {
	// Create persists a token bound to its user. Returns ErrNotFound when
	// the owning user does not exist.
	Create(ctx context.Context, token *model.APIToken) (*model.APIToken, error)

	// GetBySecret resolves a presented credential to its token record.
	// Returns ErrNotFound when no token matches.
	GetBySecret(ctx context.Context, secret string) (*model.APIToken, error)

	// ListByUser retrieves all tokens issued to a user
	ListByUser(ctx context.Context, userID types.UserID) ([]*model.APIToken, error)

	// Delete revokes a token by ID. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id types.TokenID) error
}
