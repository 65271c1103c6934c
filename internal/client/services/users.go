package services

import (
	"context"

	"github.com/dmitrijs2005/affinity/internal/client/client"
	"github.com/dmitrijs2005/affinity/internal/client/models"
)

// UsersService covers the role administration calls. The server decides
// who may use them; the CLI only forwards.
type UsersService interface {
	List(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, userID, role string) (*models.User, error)
}

type usersService struct {
	client client.Client
}

func NewUsersService(client client.Client) UsersService {
	return &usersService{client: client}
}

func (s *usersService) List(ctx context.Context) ([]models.User, error) {
	if s.client.Token() == "" {
		return nil, client.ErrNotLoggedIn
	}
	return s.client.ListUsers(ctx)
}

func (s *usersService) SetRole(ctx context.Context, userID, role string) (*models.User, error) {
	if s.client.Token() == "" {
		return nil, client.ErrNotLoggedIn
	}
	return s.client.UpdateRole(ctx, userID, role)
}
