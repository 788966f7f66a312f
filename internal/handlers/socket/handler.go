package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KirkDiggler/horserace/internal/common/identity"
	"github.com/KirkDiggler/horserace/internal/common/retry"
	"github.com/KirkDiggler/horserace/internal/services/game"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	leaveTimeout   = 5 * time.Second
)

// Client frames that end the session
const (
	FramePlayerLeaving = "playerLeaving"
	FrameTabClosing    = "tabClosing"
)

// Define errors
var (
	ErrNilConfig      = errors.New("config cannot be nil")
	ErrNilHub         = errors.New("hub cannot be nil")
	ErrNilGameService = errors.New("game service cannot be nil")
	ErrNilVerifier    = errors.New("identity verifier cannot be nil")
)

// Config holds configuration for the websocket handler
type Config struct {
	Hub         *Hub
	GameService game.Service
	Verifier    identity.Verifier

	// Retrier repeats conflicting leaves, optional
	Retrier *retry.Retrier

	Logger *zap.Logger
}

// Handler upgrades requests of /ws?gameId=…&login=… and watches the connection
type Handler struct {
	hub         *Hub
	gameService game.Service
	verifier    identity.Verifier
	retrier     *retry.Retrier
	logger      *zap.Logger
	upgrader    websocket.Upgrader

	sessions sync.WaitGroup
}

// New creates a new websocket handler
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Hub == nil {
		return nil, ErrNilHub
	}
	if cfg.GameService == nil {
		return nil, ErrNilGameService
	}
	if cfg.Verifier == nil {
		return nil, ErrNilVerifier
	}

	h := &Handler{
		hub:         cfg.Hub,
		gameService: cfg.GameService,
		verifier:    cfg.Verifier,
		retrier:     cfg.Retrier,
		logger:      cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
	if h.retrier == nil {
		h.retrier = retry.New(nil, game.IsRetryable)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	h.logger = h.logger.Named("socket")
	return h, nil
}

type client struct {
	conn   *websocket.Conn
	gameID string
	login  string
	send   chan []byte

	leaveOnce sync.Once

	// evicted is set by the hub when it dropped the client for being too slow
	evicted atomic.Bool
}

type frame struct {
	Type string `json:"type"`
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	gameID := strings.TrimSpace(query.Get("gameId"))
	if gameID == "" {
		http.Error(w, game.ErrInvalidGameID.Error(), http.StatusBadRequest)
		return
	}

	credential := query.Get("token")
	if credential == "" {
		credential = query.Get("login")
	}
	login, err := h.verifier.Verify(r.Context(), credential)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		gameID: gameID,
		login:  login,
		send:   make(chan []byte, sendBuffer),
	}
	h.hub.register(c)
	h.logger.Info("client connected", zap.String("game_id", gameID), zap.String("login", login))

	h.sessions.Add(1)
	go h.writePump(c)
	go h.readPump(c)
}

// wait blocks until every session has ended
func (h *Handler) wait() {
	h.sessions.Wait()
}

// leave frees the seat of the client once, whatever ended the session
func (h *Handler) leave(c *client, trigger string) {
	c.leaveOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
		defer cancel()

		_, err := retry.Do(ctx, h.retrier, func() (*game.LeaveGameOutput, error) {
			return h.gameService.LeaveGame(ctx, &game.LeaveGameInput{GameID: c.gameID, Login: c.login})
		})
		if err != nil && game.KindOf(err) != game.KindNotFound {
			h.logger.Error("failed to leave game",
				zap.String("game_id", c.gameID),
				zap.String("login", c.login),
				zap.String("trigger", trigger),
				zap.Error(err),
			)
			return
		}
		h.logger.Info("client left",
			zap.String("game_id", c.gameID),
			zap.String("login", c.login),
			zap.String("trigger", trigger),
		)
	})
}

func (h *Handler) readPump(c *client) {
	defer func() {
		if c.evicted.Load() {
			h.logger.Info("slow client closed, seat kept",
				zap.String("game_id", c.gameID),
				zap.String("login", c.login),
			)
		} else {
			h.leave(c, "disconnect")
		}
		h.hub.unregister(c)
		c.conn.Close()
		h.sessions.Done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}

		switch f.Type {
		case FramePlayerLeaving:
			h.leave(c, FramePlayerLeaving)
			return
		case FrameTabClosing:
			h.leave(c, FrameTabClosing)
		}
	}
}

func (h *Handler) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				closing := []byte{}
				if c.evicted.Load() {
					closing = websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "client too slow")
				}
				_ = c.conn.WriteMessage(websocket.CloseMessage, closing)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
