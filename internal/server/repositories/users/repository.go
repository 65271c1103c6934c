// Package users declares the server-side users repository and its
// PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/affinity/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its timestamps. A taken email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	UpdateProfile(ctx context.Context, id string, name string, email string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	HasRole(ctx context.Context, role models.Role) (bool, error)
}
