package rest

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/dbx"
	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/dmitrijs2005/affinity/internal/server/config"
	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/users"
	"github.com/dmitrijs2005/affinity/internal/server/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory users.Repository.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return u, nil
}

func (m *memUsers) find(pred func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if pred(x) {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) update(id string, fn func(*models.User)) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fn(x)
	cp := *x
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id string, hash []byte) error {
	_, err := m.update(id, func(u *models.User) { u.PasswordHash = hash })
	return err
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, name string, email string) (*models.User, error) {
	if other, err := m.GetByEmail(context.Background(), email); err == nil && other.ID != id {
		return nil, common.ErrorAlreadyExists
	}
	return m.update(id, func(u *models.User) {
		u.Name = name
		u.Email = email
	})
}

func (m *memUsers) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	return m.update(id, func(u *models.User) { u.Role = role })
}

func (m *memUsers) List(_ context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.User, 0, len(m.byID))
	for _, x := range m.byID {
		cp := *x
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) HasRole(_ context.Context, role models.Role) (bool, error) {
	_, err := m.find(func(u *models.User) bool { return u.Role == role })
	return err == nil, nil
}

// testManager keeps users in memory and sessions in miniredis.
type testManager struct {
	users    *memUsers
	sessions *sessions.RedisRepository
}

func (m *testManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *testManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *testManager) Sessions(dbx.DBTX) sessions.Repository        { return m.sessions }
func (m *testManager) SessionsInTx() bool                           { return false }

type fixture struct {
	svc   *services.UserService
	redis *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := &testManager{
		users:    &memUsers{byID: map[string]*models.User{}},
		sessions: sessions.NewRedisRepository(client),
	}

	cfg := &config.Config{
		SecretKey:               "test-secret",
		SessionValidityDuration: 24 * time.Hour,
		BcryptCost:              bcrypt.MinCost,
	}

	svc, err := services.NewUserService(nil, m, cfg, logging.Nop{})
	require.NoError(t, err)

	return &fixture{svc: svc, redis: mr}
}
