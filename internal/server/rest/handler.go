package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/dmitrijs2005/affinity/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserService is what the HTTP layer needs from services.UserService.
type UserService interface {
	Authenticator
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
	UpdateProfile(ctx context.Context, userID string, in services.UpdateProfileInput) (*models.PublicUser, error)
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
	UpdateRole(ctx context.Context, actor *models.User, userID string, role string) (*models.PublicUser, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type AuthHandler struct {
	users UserService
}

func NewAuthHandler(users UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterRoutes mounts the /auth endpoints on r.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Post("/change-password", h.changePassword)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.users))
		r.Get("/me", h.me)
		r.Put("/profile", h.updateProfile)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decode(w, r, &req) {
		return
	}

	if _, err := h.users.Register(r.Context(), req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), jwtauth.TokenFromHeader(r)); err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	token := jwtauth.TokenFromHeader(r)
	if token == "" {
		RespondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), token, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	RespondWithJSON(w, http.StatusOK, user.Public())
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req services.UpdateProfileInput
	if !decode(w, r, &req) {
		return
	}

	pub, err := h.users.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, pub)
}

// UsersHandler serves user administration for role administrators.
type UsersHandler struct {
	users UserService
}

func NewUsersHandler(users UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// RegisterRoutes mounts the /users endpoints on r behind Authenticate and
// RequireRole(matrix_admin, role_admin).
func (h *UsersHandler) RegisterRoutes(r chi.Router) {
	r.Use(Authenticate(h.users))
	r.Use(RequireRole(models.RoleMatrixAdmin, models.RoleRoleAdmin))

	r.Get("/", h.list)
	r.Put("/{id}/role", h.updateRole)
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, list)
}

func (h *UsersHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !decode(w, r, &req) {
		return
	}

	actor, _ := UserFromContext(r.Context())

	pub, err := h.users.UpdateRole(r.Context(), actor, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, pub)
}

func health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// maxBodyBytes bounds request bodies; auth payloads are tiny.
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
