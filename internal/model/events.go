package model

import "encoding/json"

// EventType names a session state change published on the event bus.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventSessionEnded   EventType = "session_ended"
	EventSessionPaused  EventType = "session_paused"
	EventPhaseChanged   EventType = "phase_changed"
	EventTeamJoined     EventType = "team_joined"
	EventTeamRemoved    EventType = "team_removed"
	EventAnswerReceived EventType = "answer_received"
	EventVoteReceived   EventType = "vote_received"
	EventSlotRevealed   EventType = "slot_revealed"
	EventScoresPosted   EventType = "scores_posted"
)

// Event is the envelope carried over the notification channel. UI layers
// subscribe to these instead of polling the core.
type Event struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event, marshaling the payload. Marshal failures yield an
// event with an empty payload rather than an error; notification is best
// effort.
func NewEvent(typ EventType, sessionID string, payload interface{}) *Event {
	evt := &Event{Type: typ, SessionID: sessionID}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			evt.Payload = data
		}
	}
	return evt
}
