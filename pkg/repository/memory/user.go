package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

type userRepository struct {
	store *store
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, taken := r.store.emails[user.Email]; taken {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "email already registered", goerr.V("email", user.Email))
	}

	r.store.nextUserID++
	created := copyUser(user)
	created.ID = types.UserID(r.store.nextUserID)
	created.CreatedAt = time.Now().UTC()

	r.store.users[created.ID] = created
	r.store.emails[created.Email] = created.ID
	return copyUser(created), nil
}

func (r *userRepository) GetByID(ctx context.Context, id types.UserID) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, exists := r.store.users[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}
	return copyUser(user), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, exists := r.store.emails[email]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("email", email))
	}
	return copyUser(r.store.users[id]), nil
}

func (r *userRepository) Update(ctx context.Context, id types.UserID, update *model.UserUpdate) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, exists := r.store.users[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}

	update.Apply(user)
	return copyUser(user), nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]types.UserID, 0, len(r.store.users))
	for id := range r.store.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]*model.User, 0, limit)
	for i := offset; i < len(ids) && len(users) < limit; i++ {
		users = append(users, copyUser(r.store.users[ids[i]]))
	}
	return users, nil
}
