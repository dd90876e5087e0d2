package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

type userRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, name, image_url, max_concurrent_bots, webhook_url, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.ImageURL, &u.MaxConcurrentBots, &u.WebhookURL, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user")
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, image_url, max_concurrent_bots, webhook_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		user.Email, user.Name, user.ImageURL, user.MaxConcurrentBots, user.WebhookURL)

	created, err := scanUser(row)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "email already registered", goerr.V("email", user.Email))
		}
		return nil, goerr.Wrap(err, "failed to create user", goerr.V("email", user.Email))
	}
	return created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id types.UserID) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id.Int64())

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("email", email))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("email", email))
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, id types.UserID, update *model.UserUpdate) (*model.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id.Int64())
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	update.Apply(user)

	if _, err := tx.Exec(ctx,
		`UPDATE users SET name = $2, image_url = $3, max_concurrent_bots = $4, webhook_url = $5 WHERE id = $1`,
		id.Int64(), user.Name, user.ImageURL, user.MaxConcurrentBots, user.WebhookURL); err != nil {
		return nil, goerr.Wrap(err, "failed to update user", goerr.V("id", id))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to commit user update", goerr.V("id", id))
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate users")
	}
	return users, nil
}
