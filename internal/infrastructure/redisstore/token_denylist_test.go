package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDenylist(t *testing.T) (*TokenDenylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenDenylist(client), mr
}

func TestTokenDenylist_RevokeAndCheck(t *testing.T) {
	d, mr := newDenylist(t)
	ctx := context.Background()

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl := mr.TTL(denylistKey("jti-1"))
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "unexpected ttl %v", ttl)
}

func TestTokenDenylist_EntryAgesOut(t *testing.T) {
	d, mr := newDenylist(t)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "jti-2", time.Now().Add(time.Minute)))
	mr.FastForward(2 * time.Minute)

	revoked, err := d.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenDenylist_SkipsExpiredTokens(t *testing.T) {
	d, mr := newDenylist(t)

	require.NoError(t, d.Revoke(context.Background(), "jti-3", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(denylistKey("jti-3")))
}

func TestTokenDenylist_EmptyID(t *testing.T) {
	d, _ := newDenylist(t)

	assert.Error(t, d.Revoke(context.Background(), "", time.Now().Add(time.Hour)))
	revoked, err := d.IsRevoked(context.Background(), "")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenDenylist_RedisDown(t *testing.T) {
	d, mr := newDenylist(t)
	mr.Close()

	_, err := d.IsRevoked(context.Background(), "jti-4")
	assert.Error(t, err)
}
