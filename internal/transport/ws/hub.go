package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"quizrumble/internal/model"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventSource delivers session events from the bus; implemented by
// cache.EventBus.
type EventSource interface {
	SubscribeAll(ctx context.Context) (<-chan *model.Event, func() error)
}

// Hub manages WebSocket connections per session and fans the event bus out
// to them. Host connections receive everything; team connections receive
// everything too since the payloads are already redacted upstream.
type Hub struct {
	hostConns map[string]*Connection
	teamConns map[string]map[string]*Connection // sessionID -> teamID -> conn

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage

	log zerolog.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	TeamID    string // Empty for host connections
	IsHost    bool
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	ToHost    bool
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		hostConns:  make(map[string]*Connection),
		teamConns:  make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		log:        log,
	}
	go h.run()
	return h
}

// Run pumps session events from the bus into connected clients until ctx is
// cancelled. Events published by any server replica arrive here, so clients
// stay current regardless of which instance handled the write.
func (h *Hub) Run(ctx context.Context, src EventSource) error {
	events, closeFn := src.SubscribeAll(ctx)
	defer closeFn()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			h.BroadcastEvent(evt)
		}
	}
}

// BroadcastEvent sends a session event to the host and every team connection.
func (h *Hub) BroadcastEvent(evt *model.Event) {
	msg := &Message{Type: evt.Type, Payload: evt.Payload}
	h.broadcast <- &BroadcastMessage{SessionID: evt.SessionID, ToHost: true, Message: msg}
	h.broadcast <- &BroadcastMessage{SessionID: evt.SessionID, Message: msg}
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsHost {
				h.hostConns[conn.SessionID] = conn
				h.log.Debug().Str("session", conn.SessionID).Msg("host connected")
			} else {
				if h.teamConns[conn.SessionID] == nil {
					h.teamConns[conn.SessionID] = make(map[string]*Connection)
				}
				h.teamConns[conn.SessionID][conn.TeamID] = conn
				h.log.Debug().Str("session", conn.SessionID).Str("team", conn.TeamID).Msg("team connected")
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsHost {
				if existing, ok := h.hostConns[conn.SessionID]; ok && existing == conn {
					delete(h.hostConns, conn.SessionID)
					close(conn.Send)
					h.log.Debug().Str("session", conn.SessionID).Msg("host disconnected")
				}
			} else {
				if teams, ok := h.teamConns[conn.SessionID]; ok {
					if existing, ok := teams[conn.TeamID]; ok && existing == conn {
						delete(teams, conn.TeamID)
						close(conn.Send)
						h.log.Debug().Str("session", conn.SessionID).Str("team", conn.TeamID).Msg("team disconnected")
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToHost {
				if conn, ok := h.hostConns[msg.SessionID]; ok {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else {
				if teams, ok := h.teamConns[msg.SessionID]; ok {
					for _, conn := range teams {
						select {
						case conn.Send <- data:
						default:
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}
