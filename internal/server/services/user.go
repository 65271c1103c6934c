// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout, password changes,
// session resolution and user administration.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/dbx"
	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/dmitrijs2005/affinity/internal/server/auth"
	"github.com/dmitrijs2005/affinity/internal/server/config"
	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// UserService provides authentication-related operations:
//   - Register: create users
//   - Login: verify credentials and open a session
//   - Logout: close one session
//   - ChangePassword: rotate the password and close every session of the user
//   - Authenticate: resolve a session token to its user
type UserService struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	hasher                  *auth.Hasher
	logger                  logging.Logger
	secretKey               []byte
	sessionValidityDuration time.Duration
	now                     func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) (*UserService, error) {
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &UserService{
		db:                      db,
		repomanager:             m,
		hasher:                  hasher,
		logger:                  logger.With("module", "users"),
		secretKey:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
		now:                     time.Now,
	}, nil
}

// Register validates in and creates a new user. A taken email yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		s.logger.Error(ctx, "hash password", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "create user", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "role", string(u.Role))

	pub := u.Public()
	return &pub, nil
}

// Login verifies the credentials and, on success, stores a new session and
// returns its token. Unknown email and wrong password are indistinguishable
// to the caller, both in the error and in the time spent.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.hasher.CompareDummy(password)
		}
		s.logger.Error(ctx, "get user by email", "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info(ctx, "login failed", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{Token: token, User: user.Public()}, nil
}

// Logout deletes the session behind token. An unknown token is not an error.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrNoToken
	}

	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		s.logger.Error(ctx, "delete session", "error", err)
		return common.ErrorInternal
	}

	return nil
}

// Authenticate resolves token to its user. The token must carry a valid
// signature, have a stored session that has not expired, and belong to an
// existing user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrNoToken
	}

	now := s.now()
	sessions := s.repomanager.Sessions(s.db)

	claims, err := auth.ParseToken(token, s.secretKey, now)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			s.dropStale(ctx, token)
		}
		return nil, err
	}

	session, err := sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "find session", "error", err)
		return nil, common.ErrorInternal
	}

	if session.UserID != claims.Subject {
		return nil, common.ErrInvalidToken
	}

	if session.Expired(now) {
		s.dropStale(ctx, token)
		return nil, common.ErrTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "get session owner", "error", err)
		return nil, common.ErrorInternal
	}

	return user, nil
}

// ChangePassword replaces the password of the user behind token and closes
// every session of that user, the calling one included.
func (s *UserService) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrorValidation)
	}

	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return common.ErrorUnauthorized
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return err
		}
		s.logger.Error(ctx, "hash password", "error", err)
		return common.ErrorInternal
	}

	var revoked int64
	if s.repomanager.SessionsInTx() {
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
				return fmt.Errorf("error updating password: %w", err)
			}
			n, err := s.repomanager.Sessions(tx).DeleteByUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("error deleting sessions: %w", err)
			}
			revoked = n
			return nil
		})
	} else {
		err = s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash)
		if err == nil {
			revoked, err = s.repomanager.Sessions(s.db).DeleteByUser(ctx, user.ID)
		}
	}
	if err != nil {
		s.logger.Error(ctx, "change password", "user_id", user.ID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "password changed", "user_id", user.ID, "sessions_revoked", revoked)
	return nil
}

// UpdateProfile sets the name and email of the user. An email held by
// another user yields common.ErrEmailTaken.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, in.Name, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrEmailTaken
		}
		return nil, s.mapUserErr(ctx, "update profile", err)
	}

	s.logger.Info(ctx, "profile updated", "user_id", u.ID)

	pub := u.Public()
	return &pub, nil
}

// ListUsers returns every user, oldest first.
func (s *UserService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list users", "error", err)
		return nil, common.ErrorInternal
	}

	result := make([]models.PublicUser, 0, len(list))
	for _, u := range list {
		result = append(result, u.Public())
	}
	return result, nil
}

// UpdateRole lets actor assign role to the user with userID. Only a
// matrix_admin may grant matrix_admin or change the role of a matrix_admin.
// The new role takes effect on that user's next request; sessions are kept.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.User, userID string, role string) (*models.PublicUser, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	if actor == nil {
		return nil, common.ErrorForbidden
	}
	if actor.Role != models.RoleMatrixAdmin {
		if r == models.RoleMatrixAdmin {
			s.logger.Warn(ctx, "matrix_admin grant refused", "actor_id", actor.ID, "user_id", userID)
			return nil, common.ErrorForbidden
		}
		target, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, s.mapUserErr(ctx, "get user", err)
		}
		if target.Role == models.RoleMatrixAdmin {
			s.logger.Warn(ctx, "matrix_admin demotion refused", "actor_id", actor.ID, "user_id", userID)
			return nil, common.ErrorForbidden
		}
	}

	u, err := repo.UpdateRole(ctx, userID, r)
	if err != nil {
		return nil, s.mapUserErr(ctx, "update role", err)
	}

	s.logger.Info(ctx, "role changed", "actor_id", actor.ID, "user_id", u.ID, "role", string(u.Role))

	pub := u.Public()
	return &pub, nil
}

// --- helpers below ---

func (s *UserService) openSession(ctx context.Context, userID string) (string, error) {
	now := s.now()

	token, err := auth.GenerateToken(userID, s.secretKey, now, s.sessionValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "generate token", "error", err)
		return "", common.ErrorInternal
	}

	session := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionValidityDuration),
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		s.logger.Error(ctx, "create session", "error", err)
		return "", common.ErrorInternal
	}

	return token, nil
}

// dropStale removes an expired session. Failures only get logged; the
// sweeper or the store TTL will catch it later.
func (s *UserService) dropStale(ctx context.Context, token string) {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		s.logger.Warn(ctx, "delete expired session", "error", err)
	}
}

func (s *UserService) mapUserErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.logger.Error(ctx, op, "error", err)
	return common.ErrorInternal
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
