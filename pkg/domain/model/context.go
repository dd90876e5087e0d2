package model

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

type ctxUserKey struct{}

// WithUser stores the authenticated user in the context
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// UserFromContext retrieves the authenticated user from the context
func UserFromContext(ctx context.Context) (*User, error) {
	user, ok := ctx.Value(ctxUserKey{}).(*User)
	if !ok || user == nil {
		return nil, goerr.New("no authenticated user in context")
	}
	return user, nil
}
