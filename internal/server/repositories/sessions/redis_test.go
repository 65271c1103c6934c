package sessions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func TestRedis_CreateAndFind(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	s := &models.Session{Token: "tok1", UserID: "u1", ExpiresAt: expires}
	require.NoError(t, repo.Create(ctx, s))
	assert.False(t, s.CreatedAt.IsZero())

	got, err := repo.Find(ctx, "tok1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(expires))

	ttl := mr.TTL("session:tok1")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %v", ttl)

	members, err := mr.Members("user_sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok1"}, members)
}

func TestRedis_CreateDuplicate(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	s := &models.Session{Token: "tok1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, s))
	assert.ErrorIs(t, repo.Create(ctx, s), common.ErrorAlreadyExists)
}

func TestRedis_CreateAlreadyExpired(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Session{Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(-time.Second)}))

	_, err := repo.Find(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedis_FindNotFoundAndExpiry(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	_, err := repo.Find(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.Create(ctx, &models.Session{Token: "tok1", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, err = repo.Find(ctx, "tok1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedis_FindCorrupt(t *testing.T) {
	repo, mr := newRedisRepo(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := repo.Find(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestRedis_Delete(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Session{Token: "tok1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Session{Token: "tok2", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, repo.Delete(ctx, "tok1"))
	require.NoError(t, repo.Delete(ctx, "tok1"), "delete must be idempotent")

	_, err := repo.Find(ctx, "tok1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	members, err := mr.Members("user_sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok2"}, members)
}

func TestRedis_DeleteByUser(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	for _, tok := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &models.Session{Token: tok, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	}
	require.NoError(t, repo.Create(ctx, &models.Session{Token: "other", UserID: "u2", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := repo.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	for _, tok := range []string{"a", "b", "c"} {
		_, err := repo.Find(ctx, tok)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	}
	assert.False(t, mr.Exists("user_sessions:u1"))

	_, err = repo.Find(ctx, "other")
	assert.NoError(t, err)

	n, err = repo.DeleteByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRedis_CreateWritesIndexWithSessionTTL(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Session{Token: "a", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.Session{Token: "b", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))

	ttl := mr.TTL("user_sessions:u1")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %v", ttl)

	// a rejected duplicate leaves the index alone
	assert.ErrorIs(t, repo.Create(ctx, &models.Session{Token: "a", UserID: "u2", ExpiresAt: time.Now().Add(time.Hour)}), common.ErrorAlreadyExists)
	assert.False(t, mr.Exists("user_sessions:u2"))
}

func TestRedis_CreateConcurrentWithDeleteByUser(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	const workers, perWorker = 4, 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := &models.Session{Token: fmt.Sprintf("t-%d-%d", w, i), UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
				assert.NoError(t, repo.Create(ctx, s))
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < perWorker; i++ {
			_, err := repo.DeleteByUser(ctx, "u1")
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	// every surviving session is still reachable through the index
	members, _ := mr.Members("user_sessions:u1")
	indexed := map[string]bool{}
	for _, m := range members {
		indexed[m] = true
	}
	for _, k := range mr.Keys() {
		if tok, ok := strings.CutPrefix(k, "session:"); ok {
			assert.True(t, indexed[tok], "session %s missing from index", tok)
		}
	}

	_, err := repo.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	for _, k := range mr.Keys() {
		assert.False(t, strings.HasPrefix(k, "session:"), "session %s survived", k)
	}
}

func TestRedis_DeleteExpiredIsNoop(t *testing.T) {
	repo, _ := newRedisRepo(t)
	n, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRedis_ServerDown(t *testing.T) {
	repo, mr := newRedisRepo(t)
	mr.Close()

	_, err := repo.Find(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	err = repo.Create(context.Background(), &models.Session{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = repo.DeleteByUser(context.Background(), "u1")
	require.Error(t, err)
}
