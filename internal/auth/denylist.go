package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "denylist:"

// TokenDenylist revokes refresh tokens by JTI until their natural expiry.
type TokenDenylist interface {
	Deny(ctx context.Context, jti string, until time.Time) error
	Denied(ctx context.Context, jti string) (bool, error)
}

type redisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist stores revoked token IDs in Redis with a TTL matching
// the token's remaining lifetime.
func NewRedisDenylist(client *redis.Client) TokenDenylist {
	return &redisDenylist{client: client}
}

func (d *redisDenylist) Deny(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+jti, "1", ttl).Err()
}

func (d *redisDenylist) Denied(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
