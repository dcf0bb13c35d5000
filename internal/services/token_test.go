package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTokenService_IssueAndIntrospect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.Issue(ctx, "client-1", "user-1", models.ScopeSet{"read", "write"})
	require.NoError(t, err)
	assert.Equal(t, TokenTypeBearer, pair.TokenType)
	assert.Equal(t, int64(600), pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	info, err := env.tokens.Introspect(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.Equal(t, TokenTypeHintAccessToken, info.TokenType)
	assert.Equal(t, "client-1", info.ClientID)
	assert.Equal(t, "user-1", info.UserID)
	assert.Equal(t, models.ScopeSet{"read", "write"}, info.Scopes)

	info, err = env.tokens.Introspect(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.Equal(t, TokenTypeHintRefreshToken, info.TokenType)

	info, err = env.tokens.Introspect(ctx, "not-a-token")
	require.NoError(t, err)
	assert.False(t, info.Active)

	env.clock.Advance(11 * time.Minute)
	info, err = env.tokens.Introspect(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, info.Active, "access token outlived its lifetime")
}

func TestTokenService_RefreshRotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.tokens.Issue(ctx, "client-1", "user-1", models.ScopeSet{"read"})
	require.NoError(t, err)

	second, err := env.tokens.Refresh(ctx, "client-1", first.RefreshToken, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, models.ScopeSet{"read"}, second.Scopes)

	_, err = env.tokens.Refresh(ctx, "client-1", first.RefreshToken, nil)
	assertKind(t, err, KindInvalidGrant)

	_, err = env.tokens.Refresh(ctx, "client-1", second.RefreshToken, nil)
	require.NoError(t, err)

	_, err = env.tokens.Refresh(ctx, "client-1", second.RefreshToken, nil)
	assertKind(t, err, KindInvalidGrant)
}

func TestTokenService_RefreshScopes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.Issue(ctx, "client-1", "user-1", models.ScopeSet{"read", "write"})
	require.NoError(t, err)

	_, err = env.tokens.Refresh(ctx, "client-1", pair.RefreshToken, models.ScopeSet{"read", "profile"})
	assertKind(t, err, KindInvalidScope)

	// The widening attempt rolled back, so the token is still redeemable.
	narrowed, err := env.tokens.Refresh(ctx, "client-1", pair.RefreshToken, models.ScopeSet{"read"})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeSet{"read"}, narrowed.Scopes)
}

func TestTokenService_RefreshBindings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.Issue(ctx, "client-1", "user-1", models.ScopeSet{"read"})
	require.NoError(t, err)

	_, err = env.tokens.Refresh(ctx, "client-2", pair.RefreshToken, nil)
	assertKind(t, err, KindInvalidGrant)

	_, err = env.tokens.Refresh(ctx, "client-1", "", nil)
	assertKind(t, err, KindInvalidGrant)

	env.clock.Advance(24*time.Hour + time.Second)
	_, err = env.tokens.Refresh(ctx, "client-1", pair.RefreshToken, nil)
	assertKind(t, err, KindInvalidGrant)
}

func TestTokenService_ConcurrentRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.Issue(ctx, "client-1", "user-1", models.ScopeSet{"read"})
	require.NoError(t, err)

	var wins, invalid atomic.Int32
	var g errgroup.Group
	for range 10 {
		g.Go(func() error {
			_, err := env.tokens.Refresh(ctx, "client-1", pair.RefreshToken, nil)
			switch {
			case err == nil:
				wins.Add(1)
			case KindOf(err) == KindInvalidGrant:
				invalid.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(9), invalid.Load())
}

func TestTokenService_Revoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("refresh token takes its access token with it", func(t *testing.T) {
		pair, err := env.tokens.Issue(ctx, "client-1", "user-1", nil)
		require.NoError(t, err)

		require.NoError(t, env.tokens.Revoke(ctx, "client-1", pair.RefreshToken, TokenTypeHintRefreshToken))

		info, err := env.tokens.Introspect(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.False(t, info.Active)

		_, err = env.tokens.Refresh(ctx, "client-1", pair.RefreshToken, nil)
		assertKind(t, err, KindInvalidGrant)
	})

	t.Run("access token with wrong hint", func(t *testing.T) {
		pair, err := env.tokens.Issue(ctx, "client-1", "user-1", nil)
		require.NoError(t, err)

		require.NoError(t, env.tokens.Revoke(ctx, "client-1", pair.AccessToken, TokenTypeHintRefreshToken))

		info, err := env.tokens.Introspect(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.False(t, info.Active)
	})

	t.Run("other client's token is left alone", func(t *testing.T) {
		pair, err := env.tokens.Issue(ctx, "client-1", "user-1", nil)
		require.NoError(t, err)

		require.NoError(t, env.tokens.Revoke(ctx, "client-2", pair.AccessToken, ""))

		info, err := env.tokens.Introspect(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.True(t, info.Active)
	})

	t.Run("unknown token", func(t *testing.T) {
		assert.NoError(t, env.tokens.Revoke(ctx, "client-1", "unknown", ""))
	})

	t.Run("empty token", func(t *testing.T) {
		assertKind(t, env.tokens.Revoke(ctx, "client-1", "", ""), KindInvalidRequest)
	})
}

func TestTokenService_DeleteExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tokens.Issue(ctx, "client-1", "", nil)
	require.NoError(t, err)

	n, err := env.tokens.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(25 * time.Hour)
	n, err = env.tokens.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
