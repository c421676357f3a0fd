package service

import (
	"context"

	"quizrumble/internal/model"
)

// Publisher pushes session state-change events to the notification channel
// (implemented by cache.EventBus; kept as an interface so tests can capture
// events in memory).
type Publisher interface {
	Publish(ctx context.Context, sessionID string, evt *model.Event) error
}
