package firestore

import (
	"context"
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

type userRepository struct {
	client *firestore.Client
}

type userDoc struct {
	ID                int64     `firestore:"id"`
	Email             string    `firestore:"email"`
	Name              string    `firestore:"name"`
	ImageURL          string    `firestore:"image_url"`
	MaxConcurrentBots int       `firestore:"max_concurrent_bots"`
	WebhookURL        string    `firestore:"webhook_url"`
	CreatedAt         time.Time `firestore:"created_at"`
}

// emailDoc reserves a unique email; its document ID is the email itself.
type emailDoc struct {
	UserID int64 `firestore:"user_id"`
}

func toUserDoc(u *model.User) *userDoc {
	return &userDoc{
		ID:                u.ID.Int64(),
		Email:             u.Email,
		Name:              u.Name,
		ImageURL:          u.ImageURL,
		MaxConcurrentBots: u.MaxConcurrentBots,
		WebhookURL:        u.WebhookURL,
		CreatedAt:         u.CreatedAt,
	}
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		ID:                types.UserID(d.ID),
		Email:             d.Email,
		Name:              d.Name,
		ImageURL:          d.ImageURL,
		MaxConcurrentBots: d.MaxConcurrentBots,
		WebhookURL:        d.WebhookURL,
		CreatedAt:         d.CreatedAt,
	}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user")
	}

	id, err := nextID(ctx, r.client, "user_id")
	if err != nil {
		return nil, err
	}

	created := *user
	created.ID = types.UserID(id)
	created.CreatedAt = time.Now().UTC()

	emailRef := r.client.Collection(userEmailsCollection).Doc(created.Email)
	userRef := r.client.Collection(usersCollection).Doc(created.ID.String())

	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(emailRef, &emailDoc{UserID: id}); err != nil {
			return err
		}
		return tx.Create(userRef, toUserDoc(&created))
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "email already registered", goerr.V("email", created.Email))
		}
		return nil, goerr.Wrap(err, "failed to create user", goerr.V("email", created.Email))
	}

	return &created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id types.UserID) (*model.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("id", id))
	}
	return d.toModel(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	doc, err := r.client.Collection(userEmailsCollection).Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("email", email))
		}
		return nil, goerr.Wrap(err, "failed to get email record", goerr.V("email", email))
	}

	var ed emailDoc
	if err := doc.DataTo(&ed); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal email record", goerr.V("email", email))
	}

	return r.GetByID(ctx, types.UserID(ed.UserID))
}

func (r *userRepository) Update(ctx context.Context, id types.UserID, update *model.UserUpdate) (*model.User, error) {
	userRef := r.client.Collection(usersCollection).Doc(id.String())

	var updated *model.User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(userRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get user", goerr.V("id", id))
		}

		var d userDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal user", goerr.V("id", id))
		}

		user := d.toModel()
		update.Apply(user)
		updated = user
		return tx.Set(userRef, toUserDoc(user))
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	iter := r.client.Collection(usersCollection).
		OrderBy("id", firestore.Asc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var users []*model.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		var d userDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal user")
		}
		users = append(users, d.toModel())
	}
	return users, nil
}
