// Package lock keeps two sends of the same campaign from overlapping.
package lock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
)

// Guard hands out one token per campaign at a time.
type Guard interface {
	Acquire(ctx context.Context, campaignID int) (release func(), err error)
}

// NopGuard never blocks. It is used when no Redis is configured.
type NopGuard struct{}

func (NopGuard) Acquire(ctx context.Context, campaignID int) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard stores the token under campaign:send:<id> with SET NX.
type RedisGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisGuard parses url, pings the server and returns a guard.
func NewRedisGuard(url string, ttl time.Duration) (*RedisGuard, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("Redis connection established to %s", opt.Addr)
	return &RedisGuard{Client: rc, TTL: ttl}, nil
}

func key(campaignID int) string {
	return fmt.Sprintf("campaign:send:%d", campaignID)
}

func (g *RedisGuard) Acquire(ctx context.Context, campaignID int) (func(), error) {
	token := uuid.NewString()
	ok, err := g.Client.SetNX(ctx, key(campaignID), token, g.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire send lock: %w", err)
	}
	if !ok {
		return nil, appErrors.NewConflict("campaign %d is already being sent", campaignID)
	}

	release := func() {
		// the caller's context may be gone by the time the batch ends
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.Client, []string{key(campaignID)}, token).Err(); err != nil {
			log.Printf("⚠️ Failed to release send lock for campaign %d: %v", campaignID, err)
		}
	}
	return release, nil
}

func (g *RedisGuard) Close() error {
	return g.Client.Close()
}

var (
	_ Guard = NopGuard{}
	_ Guard = (*RedisGuard)(nil)
)
