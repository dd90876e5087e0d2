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

type tokenRepository struct {
	pool *pgxpool.Pool
}

const tokenColumns = `id, token, user_id, created_at`

func scanToken(row pgx.Row) (*model.APIToken, error) {
	var t model.APIToken
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) Create(ctx context.Context, token *model.APIToken) (*model.APIToken, error) {
	if err := token.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token")
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO api_tokens (token, user_id) VALUES ($1, $2) RETURNING `+tokenColumns,
		token.Token, token.UserID.Int64())

	created, err := scanToken(row)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "token secret already exists", goerr.V("user_id", token.UserID))
		case pgForeignKeyViolation:
			return nil, goerr.Wrap(interfaces.ErrNotFound, "token owner not found", goerr.V("user_id", token.UserID))
		}
		return nil, goerr.Wrap(err, "failed to create token", goerr.V("user_id", token.UserID))
	}
	return created, nil
}

func (r *tokenRepository) GetBySecret(ctx context.Context, secret string) (*model.APIToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE token = $1`, secret)

	token, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "token not found")
		}
		return nil, goerr.Wrap(err, "failed to query token")
	}
	return token, nil
}

func (r *tokenRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.APIToken, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE user_id = $1 ORDER BY id ASC`,
		userID.Int64())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query tokens", goerr.V("user_id", userID))
	}
	defer rows.Close()

	var tokens []*model.APIToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan token")
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate tokens")
	}
	return tokens, nil
}

func (r *tokenRepository) Delete(ctx context.Context, id types.TokenID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_tokens WHERE id = $1`, id.Int64())
	if err != nil {
		return goerr.Wrap(err, "failed to delete token", goerr.V("id", id))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "token not found", goerr.V("id", id))
	}
	return nil
}
