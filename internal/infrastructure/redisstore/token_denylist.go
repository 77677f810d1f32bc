package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "auth:denylist:"

// TokenDenylist remembers revoked token ids until the token would have expired anyway.
type TokenDenylist struct {
	client *redis.Client
	now    func() time.Time
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client, now: time.Now}
}

func denylistKey(jti string) string { return denylistPrefix + jti }

// Revoke stores jti until expiresAt. Tokens already past expiry are skipped.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("empty token id")
	}
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked and has not yet aged out.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, denylistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
