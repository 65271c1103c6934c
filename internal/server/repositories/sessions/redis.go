package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
)

// RedisRepository keeps sessions in Redis. Each session is a JSON value
// under session:<token> whose TTL is the remaining validity; the tokens of
// a user are indexed in the set user_sessions:<user id> so that they can be
// revoked together. Expiry is left to Redis, so DeleteExpired has nothing
// to do.
type RedisRepository struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

func sessionKey(token string) string  { return sessionKeyPrefix + token }
func userSetKey(userID string) string { return userSessionKeyPrefix + userID }

// createScript stores the session and indexes its token in one step, so a
// concurrent DeleteByUser either sees both writes or neither.
// KEYS: session key, user index key. ARGV: payload, ttl in ms, token.
var createScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
	return 0
end
redis.call('SADD', KEYS[2], ARGV[3])
redis.call('PEXPIRE', KEYS[2], ARGV[2])
return 1
`)

// deleteByUserScript removes every indexed session of a user and the index
// itself. KEYS: user index key. ARGV: session key prefix.
var deleteByUserScript = redis.NewScript(`
local n = 0
for _, token in ipairs(redis.call('SMEMBERS', KEYS[1])) do
	n = n + redis.call('DEL', ARGV[1] .. token)
end
redis.call('DEL', KEYS[1])
return n
`)

// Create stores session with a TTL of ExpiresAt minus now. A session that is
// already expired is not stored at all.
func (r *RedisRepository) Create(ctx context.Context, session *models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now().UTC()
	}

	// Every session has the same validity, so the newest one outlives the
	// rest and its TTL is a safe TTL for the index.
	ttl := session.ExpiresAt.Sub(r.now()).Milliseconds()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	keys := []string{sessionKey(session.Token), userSetKey(session.UserID)}
	created, err := createScript.Run(ctx, r.client, keys, data, ttl, session.Token).Int64()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if created == 0 {
		return common.ErrorAlreadyExists
	}

	return nil
}

func (r *RedisRepository) Find(ctx context.Context, token string) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	s := &models.Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return s, nil
}

func (r *RedisRepository) Delete(ctx context.Context, token string) error {
	s, err := r.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(token))
		pipe.SRem(ctx, userSetKey(s.UserID), token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	n, err := deleteByUserScript.Run(ctx, r.client, []string{userSetKey(userID)}, sessionKeyPrefix).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return n, nil
}

// DeleteExpired is a no-op: Redis evicts expired sessions by TTL.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
