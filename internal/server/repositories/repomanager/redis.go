package repomanager

import (
	"github.com/dmitrijs2005/affinity/internal/dbx"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/sessions"
	"github.com/redis/go-redis/v9"
)

// RedisSessionsManager keeps users in PostgreSQL and sessions in Redis.
// The DBTX handed to Sessions is ignored, so session writes never take part
// in a SQL transaction.
type RedisSessionsManager struct {
	*PostgresRepositoryManager
	sessions *sessions.RedisRepository
}

func NewRedisSessionsManager(client redis.UniversalClient) *RedisSessionsManager {
	return &RedisSessionsManager{
		PostgresRepositoryManager: NewPostgresRepositoryManager(),
		sessions:                  sessions.NewRedisRepository(client),
	}
}

func (m *RedisSessionsManager) Sessions(_ dbx.DBTX) sessions.Repository {
	return m.sessions
}

func (m *RedisSessionsManager) SessionsInTx() bool { return false }
