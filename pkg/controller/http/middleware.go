package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/usecase"
	"github.com/recapd/relay/pkg/utils/logging"
)

const (
	apiKeyHeader      = "X-API-Key"
	adminAPIKeyHeader = "X-Admin-API-Key"
)

// authMiddleware resolves the X-API-Key header to a user and stores it in the
// request context
func authMiddleware(identity *usecase.IdentityUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := identity.ResolveToken(r.Context(), r.Header.Get(apiKeyHeader))
			if err != nil {
				handleError(r.Context(), w, err)
				return
			}

			ctx := model.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminMiddleware guards the admin surface with the deployment-wide admin key
func adminMiddleware(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(adminAPIKeyHeader)
			if presented == "" {
				handleError(r.Context(), w, goerr.Wrap(usecase.ErrUnauthorized, "missing admin API key"))
				return
			}
			if adminToken == "" ||
				subtle.ConstantTimeCompare([]byte(presented), []byte(adminToken)) != 1 {
				handleError(r.Context(), w, goerr.Wrap(usecase.ErrForbidden, "invalid admin API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
