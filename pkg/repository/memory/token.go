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

type tokenRepository struct {
	store *store
}

func (r *tokenRepository) Create(ctx context.Context, token *model.APIToken) (*model.APIToken, error) {
	if err := token.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[token.UserID]; !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "token owner not found", goerr.V("user_id", token.UserID))
	}
	if _, taken := r.store.secrets[token.Token]; taken {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "token secret already in use")
	}

	r.store.nextTokenID++
	created := copyToken(token)
	created.ID = types.TokenID(r.store.nextTokenID)
	created.CreatedAt = time.Now().UTC()

	r.store.tokens[created.ID] = created
	r.store.secrets[created.Token] = created.ID
	return copyToken(created), nil
}

func (r *tokenRepository) GetBySecret(ctx context.Context, secret string) (*model.APIToken, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, exists := r.store.secrets[secret]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "token not found")
	}
	return copyToken(r.store.tokens[id]), nil
}

func (r *tokenRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.APIToken, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var tokens []*model.APIToken
	for _, t := range r.store.tokens {
		if t.UserID == userID {
			tokens = append(tokens, copyToken(t))
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })
	return tokens, nil
}

func (r *tokenRepository) Delete(ctx context.Context, id types.TokenID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	token, exists := r.store.tokens[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "token not found", goerr.V("id", id))
	}

	delete(r.store.secrets, token.Token)
	delete(r.store.tokens, id)
	return nil
}
