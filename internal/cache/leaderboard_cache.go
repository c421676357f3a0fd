package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for the live leaderboard.
// It mirrors scores held in the teams collection; the ranked view served to
// clients is always recomputed from those scores, this ZSET only feeds the
// hot broadcast path.
type LeaderboardCache interface {
	SetScore(ctx context.Context, sessionID, teamID string, score int) error
	Remove(ctx context.Context, sessionID, teamID string) error
	Delete(ctx context.Context, sessionID string) error
}

type leaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *leaderboardCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:lb", sessionID)
}

func (c *leaderboardCache) SetScore(ctx context.Context, sessionID, teamID string, score int) error {
	key := c.key(sessionID)
	if err := c.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(score),
		Member: teamID,
	}).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *leaderboardCache) Remove(ctx context.Context, sessionID, teamID string) error {
	return c.client.ZRem(ctx, c.key(sessionID), teamID).Err()
}

func (c *leaderboardCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
