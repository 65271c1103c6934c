package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type ctxKey string

const (
	userCtxKey  ctxKey = "user"
	tokenCtxKey ctxKey = "token"
)

// UserFromContext returns the user attached by Authenticate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*models.User)
	return u, ok && u != nil
}

// TokenFromContext returns the session token attached by Authenticate.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenCtxKey).(string)
	return t, ok && t != ""
}

// Authenticate resolves the bearer token of each request to its user:
//
//	no token                       -> 401 "No token provided"
//	unknown, revoked or expired    -> 401 "Invalid or expired token"
//	valid                          -> user and token in the request context
func Authenticate(users Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := jwtauth.TokenFromHeader(r)
			if token == "" {
				RespondWithError(w, http.StatusUnauthorized, MessageFromError(common.ErrNoToken))
				return
			}

			user, err := users.Authenticate(r.Context(), token)
			if err != nil {
				respondWithServiceError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, user)
			ctx = context.WithValue(ctx, tokenCtxKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only when the authenticated user
// holds one of roles. It must run after Authenticate.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, MessageFromError(common.ErrNoToken))
				return
			}
			if !user.Role.In(roles...) {
				RespondWithError(w, http.StatusForbidden, MessageFromError(common.ErrorForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request. Tokens and bodies are never logged.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
