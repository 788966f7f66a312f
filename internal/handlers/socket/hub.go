// Package socket pushes game events to websocket clients and turns their departure into a leave.
package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/KirkDiggler/horserace/internal/models"
	"go.uber.org/zap"
)

const sendBuffer = 32

// Message is one frame sent to clients
type Message struct {
	Type models.EventType `json:"type"`
	Data any              `json:"data"`
}

type playerLeftData struct {
	Login   string `json:"login"`
	Message string `json:"message"`
}

type gameWonData struct {
	WinnerColor models.Color `json:"winner"`
	WinnerLogin string       `json:"login"`
}

// Hub fans events out to the clients watching each game
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*client]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[string]map[*client]struct{}),
		logger: logger.Named("hub"),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.gameID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.gameID] = room
	}
	room[c] = struct{}{}
}

// unregister drops c and closes its queue. It is safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.gameID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.gameID)
	}
}

// Watchers returns the number of clients connected to a game
func (h *Hub) Watchers(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[gameID])
}

// Publish implements game.Broadcaster. Clients too slow to keep up are evicted: their socket
// closes but their seat stays.
func (h *Hub) Publish(_ context.Context, event *models.Event) {
	if event == nil {
		return
	}

	payload, err := json.Marshal(encode(event))
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[event.GameID] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow client",
				zap.String("game_id", c.gameID),
				zap.String("login", c.login),
			)
			h.evictLocked(c)
		}
	}
}

// evict stops watching for c without freeing its seat
func (h *Hub) evict(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictLocked(c)
}

func (h *Hub) evictLocked(c *client) {
	room, ok := h.rooms[c.gameID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	c.evicted.Store(true)
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.gameID)
	}
}

func encode(event *models.Event) Message {
	switch event.Type {
	case models.EventPlayerLeft:
		return Message{Type: event.Type, Data: playerLeftData{
			Login:   event.Login,
			Message: fmt.Sprintf("%s left the game", event.Login),
		}}
	case models.EventGameWon:
		return Message{Type: event.Type, Data: gameWonData{
			WinnerColor: event.WinnerColor,
			WinnerLogin: event.WinnerLogin,
		}}
	case models.EventStateUpdated:
		return Message{Type: event.Type, Data: event.State}
	default:
		return Message{Type: event.Type, Data: map[string]string{"game_id": event.GameID}}
	}
}
