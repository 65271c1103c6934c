package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/server/models"
)

// BootstrapAdmin creates the first matrix_admin from in when no user holds
// that role yet. It is safe to call on every start: it reports false and
// does nothing when an admin exists, when in carries no email or password,
// or when the email is already taken by another user.
func (s *UserService) BootstrapAdmin(ctx context.Context, in RegisterInput) (bool, error) {
	if in.Email == "" || in.Password == "" {
		s.logger.Debug(ctx, "bootstrap admin not configured")
		return false, nil
	}

	exists, err := s.repomanager.Users(s.db).HasRole(ctx, models.RoleMatrixAdmin)
	if err != nil {
		s.logger.Error(ctx, "check admin presence", "error", err)
		return false, common.ErrorInternal
	}
	if exists {
		return false, nil
	}

	in.Role = string(models.RoleMatrixAdmin)
	u, err := s.Register(ctx, in)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Warn(ctx, "bootstrap admin email already registered with another role")
			return false, nil
		}
		return false, err
	}

	s.logger.Info(ctx, "bootstrap admin created", "user_id", u.ID)
	return true, nil
}
