package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

// IdentityUseCase covers token authentication and user/token management
type IdentityUseCase struct {
	repo interfaces.Repository
}

func NewIdentityUseCase(repo interfaces.Repository) *IdentityUseCase {
	return &IdentityUseCase{
		repo: repo,
	}
}

// ResolveToken authenticates a raw API token and returns its owner. An empty
// token yields ErrUnauthorized, an unknown one ErrForbidden.
func (uc *IdentityUseCase) ResolveToken(ctx context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "missing API token")
	}

	token, err := uc.repo.Token().GetBySecret(ctx, raw)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrForbidden, "unknown API token")
		}
		return nil, goerr.Wrap(err, "failed to resolve token")
	}

	user, err := uc.repo.User().GetByID(ctx, token.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get token owner", goerr.V("user_id", token.UserID))
	}
	return user, nil
}

// FindOrCreateUserInput carries the admin-supplied user attributes
type FindOrCreateUserInput struct {
	Email             string
	Name              string
	ImageURL          string
	MaxConcurrentBots *int
}

// FindOrCreateUser returns the user with the given email, creating it when
// absent. The second return value reports whether a new user was created.
func (uc *IdentityUseCase) FindOrCreateUser(ctx context.Context, input FindOrCreateUserInput) (*model.User, bool, error) {
	if input.Email == "" {
		return nil, false, goerr.Wrap(ErrBadRequest, "email is required")
	}

	existing, err := uc.repo.User().GetByEmail(ctx, input.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, false, goerr.Wrap(err, "failed to look up user", goerr.V("email", input.Email))
	}

	user := &model.User{
		Email:             input.Email,
		Name:              input.Name,
		ImageURL:          input.ImageURL,
		MaxConcurrentBots: model.DefaultMaxConcurrentBots,
	}
	if input.MaxConcurrentBots != nil {
		user.MaxConcurrentBots = *input.MaxConcurrentBots
	}
	if err := user.Validate(); err != nil {
		return nil, false, goerr.Wrap(ErrBadRequest, "invalid user attributes", goerr.V("cause", err))
	}

	created, err := uc.repo.User().Create(ctx, user)
	if err != nil {
		// A raced duplicate insert means someone else created the user first
		if errors.Is(err, interfaces.ErrAlreadyExists) {
			existing, lookupErr := uc.repo.User().GetByEmail(ctx, input.Email)
			if lookupErr != nil {
				return nil, false, goerr.Wrap(lookupErr, "failed to re-fetch raced user", goerr.V("email", input.Email))
			}
			return existing, false, nil
		}
		return nil, false, goerr.Wrap(err, "failed to create user", goerr.V("email", input.Email))
	}

	return created, true, nil
}

// UpdateUser applies a partial update to a user
func (uc *IdentityUseCase) UpdateUser(ctx context.Context, id types.UserID, update *model.UserUpdate) (*model.User, error) {
	if update == nil || update.IsEmpty() {
		return nil, goerr.Wrap(ErrBadRequest, "update carries no fields")
	}
	if err := update.Validate(); err != nil {
		return nil, goerr.Wrap(ErrBadRequest, "invalid update", goerr.V("cause", err))
	}

	updated, err := uc.repo.User().Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to update user", goerr.V("id", id))
	}
	return updated, nil
}

// SetWebhookURL updates the notification webhook of the user
func (uc *IdentityUseCase) SetWebhookURL(ctx context.Context, userID types.UserID, url string) (*model.User, error) {
	if url == "" {
		return nil, goerr.Wrap(ErrBadRequest, "webhook URL is required")
	}
	return uc.UpdateUser(ctx, userID, &model.UserUpdate{WebhookURL: &url})
}

// IssueToken creates a fresh API token for the user
func (uc *IdentityUseCase) IssueToken(ctx context.Context, userID types.UserID) (*model.APIToken, error) {
	token, err := model.NewAPIToken(userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate token", goerr.V("user_id", userID))
	}

	created, err := uc.repo.Token().Create(ctx, token)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to store token", goerr.V("user_id", userID))
	}
	return created, nil
}

// RevokeToken deletes a token by ID
func (uc *IdentityUseCase) RevokeToken(ctx context.Context, id types.TokenID) error {
	if err := uc.repo.Token().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrNotFound, "token not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to revoke token", goerr.V("id", id))
	}
	return nil
}

// UserDetail is a user together with all of their issued tokens
type UserDetail struct {
	User   *model.User
	Tokens []*model.APIToken
}

// GetUserDetail retrieves a user with their tokens
func (uc *IdentityUseCase) GetUserDetail(ctx context.Context, id types.UserID) (*UserDetail, error) {
	user, err := uc.repo.User().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	tokens, err := uc.repo.Token().ListByUser(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tokens", goerr.V("id", id))
	}

	return &UserDetail{User: user, Tokens: tokens}, nil
}

// GetUserByEmail retrieves a user by email
func (uc *IdentityUseCase) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, goerr.Wrap(ErrBadRequest, "email is required")
	}

	user, err := uc.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("email", email))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("email", email))
	}
	return user, nil
}

// ListUsers retrieves users with offset/limit pagination
func (uc *IdentityUseCase) ListUsers(ctx context.Context, offset, limit int) ([]*model.User, error) {
	if offset < 0 || limit < 0 {
		return nil, goerr.Wrap(ErrBadRequest, "offset and limit must be non-negative",
			goerr.V("offset", offset), goerr.V("limit", limit))
	}
	if limit == 0 {
		limit = 100
	}

	users, err := uc.repo.User().List(ctx, offset, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}
	return users, nil
}
