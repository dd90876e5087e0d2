package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/utils/logging"
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// The handler gets a fresh background context (the request context may be
// cancelled before it runs) that preserves the request logger. Errors and
// panics are logged, never propagated; use this only for fire-and-forget
// work whose failure must not affect the caller.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
