package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tabi/pkg/adapters/redis"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func TestRedisCache_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunBundleCacheContract(t, redis.NewFromClient(client))
}

func TestRedisCache_Keys(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	err := cache.Put(ctx, "s1", "kyoto", &domain.ContextBundle{Source: domain.SourceKnowledgeBase, Text: "x"})
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:s1:b:kyoto"))
	members, err := mr.ZMembers("test:s1:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"kyoto"}, members)
}

func TestRedisCache_DestinationNamedIndex(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "s1", "kyoto", &domain.ContextBundle{Text: "temples"}))
	require.NoError(t, cache.Put(ctx, "s1", "index", &domain.ContextBundle{Text: "a town called Index"}))

	got, err := cache.Get(ctx, "s1", "index")
	require.NoError(t, err)
	assert.Equal(t, "a town called Index", got.Text)

	members, err := mr.ZMembers("test:s1:index")
	require.NoError(t, err, "the index must stay a sorted set")
	assert.ElementsMatch(t, []string{"kyoto", "index"}, members)

	require.NoError(t, cache.Forget(ctx, "s1"))
	assert.Empty(t, mr.Keys())
}

func TestRedisCache_Flush(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewFromClient(client, redis.WithPrefix("test:"))
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	for _, s := range []string{"s1", "s2"} {
		require.NoError(t, cache.Put(ctx, s, "kyoto", &domain.ContextBundle{Text: "x"}))
	}
	unlock, err := locker.Lock(ctx, "s3", time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	require.NoError(t, cache.Flush(ctx))

	for _, s := range []string{"s1", "s2"} {
		_, err := cache.Get(ctx, s, "kyoto")
		assert.ErrorIs(t, err, domain.ErrBundleNotFound)
	}
	assert.Equal(t, []string{"test:lock:s3"}, mr.Keys(), "held locks survive a flush")
}

func TestRedisCache_Ping(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewFromClient(client)
	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)

	// Create cache with 1s TTL
	cache := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	bundle := &domain.ContextBundle{
		Destination: "Kyoto",
		Source:      domain.SourceSearch,
		Text:        "### wikipedia\nKyoto is a city.",
		Providers:   []string{"wikipedia"},
	}

	// 1. Put
	require.NoError(t, cache.Put(ctx, "session-ttl", "kyoto", bundle))

	// 2. Visible immediately
	_, err := cache.Get(ctx, "session-ttl", "kyoto")
	require.NoError(t, err)
	members, err := mr.ZMembers("tabi:bundle:session-ttl:index")
	require.NoError(t, err)
	assert.Contains(t, members, "kyoto")

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Get should miss
	_, err = cache.Get(ctx, "session-ttl", "kyoto")
	assert.ErrorIs(t, err, domain.ErrBundleNotFound)
	assert.False(t, mr.Exists("tabi:bundle:session-ttl:index"), "index expires with the session")
}

func TestRedisCache_ConnectionError(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewFromClient(client)
	mr.Close()

	_, err := cache.Get(context.Background(), "s", "kyoto")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrBundleNotFound)
}
