// Package services contains application services for the affinity CLI.
// This file defines the authentication service: register, login, logout,
// password change and the local session cache that survives restarts.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/affinity/internal/client/client"
	"github.com/dmitrijs2005/affinity/internal/client/models"
	"github.com/dmitrijs2005/affinity/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/dbx"
)

const (
	metaToken = "session_token"
	metaUser  = "session_user"
)

// AuthService defines the account operations of the CLI.
//
// Contract:
//   - Login: authenticate and cache the session locally.
//   - Restore: pick up a cached session and check it is still accepted.
//   - Logout / ChangePassword: end the session and wipe the cache.
//   - WhoAmI / UpdateProfile: read or update the signed-in user.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, name, email string, password []byte, role string) error
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Restore(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, currentPassword, newPassword []byte) error
	WhoAmI(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, name, email string) (*models.User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and a local SQL database for the session cache.
type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *authService) Register(ctx context.Context, name, email string, password []byte, role string) error {
	return a.client.Register(ctx, client.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: string(password),
		Role:     role,
	})
}

// Login authenticates against the server and caches token and user so the
// next start of the CLI does not have to ask again.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	s, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return &s.User, nil
}

// Restore loads the cached session and asks the server whether it is still
// valid. A rejected token wipes the cache and yields client.ErrNotLoggedIn.
// When the server cannot be reached the cached user is returned together
// with the transport error.
func (a *authService) Restore(ctx context.Context) (*models.User, error) {
	s, err := a.loadSession(ctx)
	if err != nil {
		return nil, err
	}

	a.client.SetToken(s.Token)

	u, err := a.client.Me(ctx)
	switch {
	case err == nil:
		s.User = *u
		if err := a.saveSession(ctx, s); err != nil {
			return nil, fmt.Errorf("session saving error: %w", err)
		}
		return u, nil
	case errors.Is(err, client.ErrUnauthorized):
		a.client.SetToken("")
		if cerr := a.clearSession(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, client.ErrNotLoggedIn
	default:
		return &s.User, err
	}
}

// Logout revokes the session on the server and always wipes the local cache.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	if cerr := a.clearSession(ctx); cerr != nil {
		return cerr
	}
	return err
}

// ChangePassword changes the password and, since the server revokes every
// session of the user, wipes the local cache.
func (a *authService) ChangePassword(ctx context.Context, currentPassword, newPassword []byte) error {
	if a.client.Token() == "" {
		return client.ErrNotLoggedIn
	}
	if err := a.client.ChangePassword(ctx, string(currentPassword), string(newPassword)); err != nil {
		return err
	}
	return a.clearSession(ctx)
}

func (a *authService) WhoAmI(ctx context.Context) (*models.User, error) {
	if a.client.Token() == "" {
		return nil, client.ErrNotLoggedIn
	}
	return a.client.Me(ctx)
}

func (a *authService) UpdateProfile(ctx context.Context, name, email string) (*models.User, error) {
	if a.client.Token() == "" {
		return nil, client.ErrNotLoggedIn
	}
	u, err := a.client.UpdateProfile(ctx, name, email)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, &models.Session{Token: a.client.Token(), User: *u}); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return u, nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// saveSession writes token and user in a single transaction.
func (a *authService) saveSession(ctx context.Context, s *models.Session) error {
	user, err := json.Marshal(s.User)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		if err := repo.Set(ctx, metaToken, []byte(s.Token)); err != nil {
			return err
		}
		return repo.Set(ctx, metaUser, user)
	})
}

func (a *authService) loadSession(ctx context.Context) (*models.Session, error) {
	repo := a.getMetadataRepo(a.db)

	token, err := repo.Get(ctx, metaToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, client.ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	s := &models.Session{Token: string(token)}

	user, err := repo.Get(ctx, metaUser)
	switch {
	case errors.Is(err, common.ErrorNotFound):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(user, &s.User); err != nil {
			return nil, fmt.Errorf("decode cached user: %w", err)
		}
	}
	return s, nil
}

func (a *authService) clearSession(ctx context.Context) error {
	return a.getMetadataRepo(a.db).Clear(ctx)
}
