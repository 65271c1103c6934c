package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/dmitrijs2005/affinity/internal/server/config"
	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/dmitrijs2005/affinity/internal/server/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubOpeners(t *testing.T, pg func(context.Context, string) (*sql.DB, error), rd func(context.Context, string) (*redis.Client, error)) {
	t.Helper()
	origPG, origRD := openPostgres, openRedis
	openPostgres, openRedis = pg, rd
	t.Cleanup(func() { openPostgres, openRedis = origPG, origRD })
}

func testConfig(store string) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.SessionStore = store
	return c
}

func TestNewApp_UnknownSessionStore(t *testing.T) {
	called := false
	stubOpeners(t, func(context.Context, string) (*sql.DB, error) {
		called = true
		return nil, errors.New("must not be called")
	}, nil)

	_, err := NewApp(context.Background(), testConfig("memcached"), logging.Nop{})
	require.ErrorContains(t, err, `unknown session store "memcached"`)
	assert.False(t, called)
}

func TestNewApp_PostgresUnavailable(t *testing.T) {
	stubOpeners(t, func(_ context.Context, dsn string) (*sql.DB, error) {
		assert.Equal(t, testConfig("postgres").DatabaseDSN, dsn)
		return nil, errors.New("connection refused")
	}, nil)

	_, err := NewApp(context.Background(), testConfig(config.SessionStorePostgres), logging.Nop{})
	require.ErrorContains(t, err, "db init error")
}

func TestNewApp_RedisUnavailable_ClosesPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	stubOpeners(t,
		func(context.Context, string) (*sql.DB, error) { return db, nil },
		func(_ context.Context, url string) (*redis.Client, error) {
			assert.Equal(t, "redis://localhost:6379/0", url)
			return nil, errors.New("dial tcp: refused")
		},
	)

	_, err = NewApp(context.Background(), testConfig(config.SessionStoreRedis), logging.Nop{})
	require.ErrorContains(t, err, "redis init error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_MigrationFailure_ClosesPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectClose()

	stubOpeners(t, func(context.Context, string) (*sql.DB, error) { return db, nil }, nil)

	_, err = NewApp(context.Background(), testConfig(config.SessionStorePostgres), logging.Nop{})
	require.ErrorContains(t, err, "migrations error")
	require.NoError(t, mock.ExpectationsWereMet())
}

type noopSessions struct{}

func (noopSessions) Create(context.Context, *models.Session) error { return nil }
func (noopSessions) Find(context.Context, string) (*models.Session, error) {
	return nil, common.ErrorNotFound
}
func (noopSessions) Delete(context.Context, string) error                { return nil }
func (noopSessions) DeleteByUser(context.Context, string) (int64, error) { return 0, nil }
func (noopSessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig(config.SessionStorePostgres)
	cfg.EndpointAddrHTTP = "127.0.0.1:0"

	app := &App{
		config:      cfg,
		logger:      logging.Nop{},
		sweeper:     services.NewSessionSweeper(noopSessions{}, 0, logging.Nop{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_StopsWhenServerCannotListen(t *testing.T) {
	cfg := testConfig(config.SessionStorePostgres)
	cfg.EndpointAddrHTTP = "127.0.0.1:-1"

	app := &App{
		config:  cfg,
		logger:  logging.Nop{},
		sweeper: services.NewSessionSweeper(noopSessions{}, time.Hour, logging.Nop{}),
	}

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after listen failure")
	}
}

func TestClose_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	app := &App{db: db}
	app.Close()
	app.Close()

	assert.Nil(t, app.db)
	require.NoError(t, mock.ExpectationsWereMet())
}
