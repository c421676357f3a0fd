package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizrumble/internal/model"
)

// SessionMeta is the hot subset of session state mirrored in Redis for cheap
// reads on the join and reconnect paths. MongoDB stays authoritative; the
// mirror is best effort.
type SessionMeta struct {
	SessionID  string         `json:"sessionId"`
	Code       string         `json:"code"`
	Phase      model.Phase    `json:"phase"`
	Deadline   *time.Time     `json:"deadline,omitempty"`
	Paused     bool           `json:"paused"`
	RoundIndex int            `json:"roundIndex"`
	Mode       model.GameMode `json:"mode"`
}

// SessionCache handles Redis operations for session lookup state.
type SessionCache interface {
	SetMeta(ctx context.Context, meta *SessionMeta) error
	ResolveCode(ctx context.Context, code string) (string, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, sessionID, code string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour, // Sessions expire after 24h
	}
}

func (c *sessionCache) metaKey(sessionID string) string {
	return fmt.Sprintf("session:%s:meta", sessionID)
}

func (c *sessionCache) codeKey(code string) string {
	return fmt.Sprintf("session:code:%s", code)
}

func (c *sessionCache) SetMeta(ctx context.Context, meta *SessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.metaKey(meta.SessionID), data, c.ttl).Err(); err != nil {
		return err
	}
	return c.client.Set(ctx, c.codeKey(meta.Code), meta.SessionID, c.ttl).Err()
}

func (c *sessionCache) ResolveCode(ctx context.Context, code string) (string, error) {
	id, err := c.client.Get(ctx, c.codeKey(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

func (c *sessionCache) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.codeKey(code)).Result()
	return n > 0, err
}

func (c *sessionCache) Delete(ctx context.Context, sessionID, code string) error {
	return c.client.Del(ctx, c.metaKey(sessionID), c.codeKey(code)).Err()
}
