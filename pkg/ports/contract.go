package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBundleCacheContract runs a suite of tests to verify that a BundleCache implementation
// adheres to the defined interface contract.
func RunBundleCacheContract(t *testing.T, cache BundleCache) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	bundle := func(dest string) *domain.ContextBundle {
		return &domain.ContextBundle{
			Destination: dest,
			Source:      domain.SourceKnowledgeBase,
			Text:        "Temples and gardens.",
			Providers:   []string{dest},
			CollectedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Put and Get", func(t *testing.T) {
		b := bundle("kyoto")
		require.NoError(t, cache.Put(ctx, sessionID, "kyoto", b), "Put should not return error")

		got, err := cache.Get(ctx, sessionID, "kyoto")
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, b.Source, got.Source)
		assert.Equal(t, b.Text, got.Text)
		assert.Equal(t, b.Providers, got.Providers)
		assert.True(t, b.CollectedAt.Equal(got.CollectedAt))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := cache.Get(ctx, sessionID, "atlantis")
		assert.ErrorIs(t, err, domain.ErrBundleNotFound)
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, sessionID, "osaka", bundle("osaka")))
		_, err := cache.Get(ctx, sessionID+"-other", "osaka")
		assert.ErrorIs(t, err, domain.ErrBundleNotFound)
	})

	t.Run("Forget", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, sessionID, "sapporo", bundle("sapporo")))
		other := sessionID + "-keep"
		require.NoError(t, cache.Put(ctx, other, "sapporo", bundle("sapporo")))
		defer func() { _ = cache.Forget(ctx, other) }()

		require.NoError(t, cache.Forget(ctx, sessionID), "Forget should not return error")

		_, err := cache.Get(ctx, sessionID, "sapporo")
		assert.ErrorIs(t, err, domain.ErrBundleNotFound, "Get after Forget should return ErrBundleNotFound")
		_, err = cache.Get(ctx, sessionID, "kyoto")
		assert.ErrorIs(t, err, domain.ErrBundleNotFound)

		_, err = cache.Get(ctx, other, "sapporo")
		assert.NoError(t, err, "Forget must not touch other sessions")
	})

	t.Run("Destination Named Index", func(t *testing.T) {
		session := sessionID + "-index"
		require.NoError(t, cache.Put(ctx, session, "kyoto", bundle("kyoto")))
		require.NoError(t, cache.Put(ctx, session, "index", bundle("index")))

		got, err := cache.Get(ctx, session, "index")
		require.NoError(t, err)
		assert.Equal(t, []string{"index"}, got.Providers)

		require.NoError(t, cache.Forget(ctx, session))
		for _, dest := range []string{"kyoto", "index"} {
			_, err := cache.Get(ctx, session, dest)
			assert.ErrorIs(t, err, domain.ErrBundleNotFound, dest)
		}
	})

	t.Run("Forget Unknown Session", func(t *testing.T) {
		assert.NoError(t, cache.Forget(ctx, "never-seen-"+sessionID))
	})
}
