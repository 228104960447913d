// Package sync pushes per-user change events to connected websocket sessions.
package sync

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"moviehub/internal/logging"
)

const writeWait = 2 * time.Second

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Hub struct {
	mu    sync.Mutex
	users map[string]map[Conn]struct{}
	log   zerolog.Logger
}

type Stats struct {
	Users   int `json:"users"`
	Clients int `json:"clients"`
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[string]map[Conn]struct{}),
		log:   logging.Component("sync"),
	}
}

func (h *Hub) Add(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[userID]
	if !ok {
		conns = make(map[Conn]struct{})
		h.users[userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) Remove(userID string, c Conn) {
	h.mu.Lock()
	h.drop(userID, c)
	h.mu.Unlock()
}

// drop must be called with mu held.
func (h *Hub) drop(userID string, c Conn) {
	conns := h.users[userID]
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.users, userID)
	}
	_ = c.Close()
}

// Publish sends v to every session of userID. Sessions that fail to accept
// the write are dropped.
func (h *Hub) Publish(userID string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.users[userID] {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Str("user_id", userID).Msg("dropping session")
			h.drop(userID, c)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Stats{Users: len(h.users)}
	for _, conns := range h.users {
		s.Clients += len(conns)
	}
	return s
}
