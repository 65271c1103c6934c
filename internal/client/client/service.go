package client

import (
	"context"

	"github.com/dmitrijs2005/affinity/internal/client/models"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type Client interface {
	Close() error
	SetToken(token string)
	Token() string
	Ping(ctx context.Context) error
	Register(ctx context.Context, req RegisterRequest) error
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	UpdateProfile(ctx context.Context, name, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, userID, role string) (*models.User, error)
}
