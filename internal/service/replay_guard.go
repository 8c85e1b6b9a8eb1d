package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayGuard remembers processed inbound provider message ids so redelivered
// callbacks become no-ops.
type ReplayGuard interface {
	// FirstSeen returns true exactly once per id within the dedup window.
	FirstSeen(ctx context.Context, providerSID string) (bool, error)
	// Release forgets a consumed id. Called when handling fails with a
	// system error, so the provider's redelivery is processed instead of
	// being suppressed as a duplicate.
	Release(ctx context.Context, providerSID string) error
}

const inboundSIDPrefix = "inbound:sid:"

type redisReplayGuard struct {
	client *redis.Client
	window time.Duration
}

// NewRedisReplayGuard builds a guard backed by redis SETNX with expiry.
func NewRedisReplayGuard(client *redis.Client, window time.Duration) ReplayGuard {
	if window <= 0 {
		window = 72 * time.Hour
	}
	return &redisReplayGuard{client: client, window: window}
}

func (g *redisReplayGuard) FirstSeen(ctx context.Context, providerSID string) (bool, error) {
	return g.client.SetNX(ctx, inboundSIDPrefix+providerSID, 1, g.window).Result()
}

func (g *redisReplayGuard) Release(ctx context.Context, providerSID string) error {
	return g.client.Del(ctx, inboundSIDPrefix+providerSID).Err()
}
