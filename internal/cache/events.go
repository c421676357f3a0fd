package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizrumble/internal/model"
)

// EventBus carries session state-change notifications over Redis pub/sub so
// UI layers (and the websocket hub on every node) learn of changes without
// polling the core.
type EventBus struct {
	client *redis.Client
}

// NewEventBus creates a new event bus
func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{client: client}
}

func channel(sessionID string) string {
	return fmt.Sprintf("session:%s:events", sessionID)
}

// Publish sends an event on the session's channel. Implements
// service.Publisher.
func (b *EventBus) Publish(ctx context.Context, sessionID string, evt *model.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel(sessionID), data).Err()
}

// SubscribeAll listens on every session channel and delivers decoded events
// until ctx is cancelled. Undecodable payloads are dropped.
func (b *EventBus) SubscribeAll(ctx context.Context) (<-chan *model.Event, func() error) {
	sub := b.client.PSubscribe(ctx, channel("*"))
	out := make(chan *model.Event, 256)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var evt model.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			select {
			case out <- &evt:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, sub.Close
}
