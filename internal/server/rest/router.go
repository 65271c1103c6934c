package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP API:
//
//	GET  /health
//	POST /auth/register, /auth/login, /auth/logout, /auth/change-password
//	GET  /auth/me, PUT /auth/profile            (session)
//	GET  /users, PUT /users/{id}/role            (session + matrix_admin or role_admin)
func NewRouter(users UserService, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Get("/health", health)

	r.Route("/auth", NewAuthHandler(users).RegisterRoutes)
	r.Route("/users", NewUsersHandler(users).RegisterRoutes)

	return r
}
