// Package sse fans editor notifications out to a user's open event streams.
package sse

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/model"
)

const clientBuffer = 16

var sseLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	sseLogger = l
}

// Event is one notification. Type becomes the SSE event name, Data is JSON encoded.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type Client struct {
	Msg  chan Event
	User model.UserID
}

func NewClient(user model.UserID) *Client {
	return &Client{
		Msg:  make(chan Event, clientBuffer),
		User: user,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	closed  bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

// Add registers client. After CloseAll its channel is closed right away.
func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(client.Msg)
		return
	}
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

// CloseAll ends every open stream and refuses new ones. It is meant for
// http.Server.RegisterOnShutdown, since Shutdown does not cancel the
// contexts of requests that are still running.
func (s *SSEClients) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for client := range s.clients {
		delete(s.clients, client)
		close(client.Msg)
	}
	sseLogger.Debug().Msg("SSE streams closed")
}

// Count returns how many streams user has open.
func (s *SSEClients) Count(user model.UserID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for client := range s.clients {
		if client.User == user {
			n++
		}
	}
	return n
}

// Broadcast delivers ev to every stream of user. Slow clients drop events instead of blocking.
func (s *SSEClients) Broadcast(user model.UserID, ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.User != user {
			continue
		}
		select {
		case client.Msg <- ev:
		default:
			sseLogger.Warn().Str("user", string(user)).Str("event", ev.Type).Msg("Dropping event for slow client")
		}
	}
}

// Notify adapts Broadcast to the func(user, type, data) shape used by the editor sessions.
func (s *SSEClients) Notify(user model.UserID, eventType string, data any) {
	s.Broadcast(user, Event{Type: eventType, Data: data})
}

func encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
