package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type tokenRepository struct {
	client *firestore.Client
}

type tokenDoc struct {
	ID        int64     `firestore:"id"`
	Token     string    `firestore:"token"`
	UserID    int64     `firestore:"user_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d *tokenDoc) toModel() *model.APIToken {
	return &model.APIToken{
		ID:        types.TokenID(d.ID),
		Token:     d.Token,
		UserID:    types.UserID(d.UserID),
		CreatedAt: d.CreatedAt,
	}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.APIToken) (*model.APIToken, error) {
	if err := token.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token")
	}

	// Firestore has no foreign keys; check the owner explicitly so a
	// missing user surfaces as NotFound rather than an orphan token.
	userRef := r.client.Collection(usersCollection).Doc(token.UserID.String())
	if _, err := userRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "token owner not found", goerr.V("user_id", token.UserID))
		}
		return nil, goerr.Wrap(err, "failed to get token owner", goerr.V("user_id", token.UserID))
	}

	id, err := nextID(ctx, r.client, "token_id")
	if err != nil {
		return nil, err
	}

	created := *token
	created.ID = types.TokenID(id)
	created.CreatedAt = time.Now().UTC()

	doc := &tokenDoc{
		ID:        id,
		Token:     created.Token,
		UserID:    created.UserID.Int64(),
		CreatedAt: created.CreatedAt,
	}
	if _, err := r.client.Collection(tokensCollection).Doc(created.ID.String()).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create token", goerr.V("user_id", token.UserID))
	}

	return &created, nil
}

func (r *tokenRepository) GetBySecret(ctx context.Context, secret string) (*model.APIToken, error) {
	iter := r.client.Collection(tokensCollection).
		Where("token", "==", secret).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "token not found")
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query token")
	}

	var d tokenDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal token")
	}
	return d.toModel(), nil
}

func (r *tokenRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.APIToken, error) {
	iter := r.client.Collection(tokensCollection).
		Where("user_id", "==", userID.Int64()).
		Documents(ctx)
	defer iter.Stop()

	var tokens []*model.APIToken
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tokens", goerr.V("user_id", userID))
		}

		var d tokenDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal token")
		}
		tokens = append(tokens, d.toModel())
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })
	return tokens, nil
}

func (r *tokenRepository) Delete(ctx context.Context, id types.TokenID) error {
	docRef := r.client.Collection(tokensCollection).Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "token not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get token", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete token", goerr.V("id", id))
	}
	return nil
}
