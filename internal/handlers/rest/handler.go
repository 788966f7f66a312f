// Package rest exposes the game service over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/KirkDiggler/horserace/internal/common/identity"
	"github.com/KirkDiggler/horserace/internal/common/retry"
	"github.com/KirkDiggler/horserace/internal/common/uuid"
	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/KirkDiggler/horserace/internal/services/game"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Define errors
var (
	ErrNilConfig      = errors.New("config cannot be nil")
	ErrNilGameService = errors.New("game service cannot be nil")
	ErrNilVerifier    = errors.New("identity verifier cannot be nil")
)

// TokenIssuer signs credentials for a login
type TokenIssuer interface {
	Issue(login string) (string, error)
}

// Config holds configuration for the HTTP handler
type Config struct {
	GameService game.Service
	Verifier    identity.Verifier

	// Issuer enables POST /sessions, optional
	Issuer TokenIssuer

	// Retrier repeats conflicting writes, optional
	Retrier *retry.Retrier

	Logger *zap.Logger
}

// Handler serves the REST API
type Handler struct {
	gameService game.Service
	verifier    identity.Verifier
	issuer      TokenIssuer
	retrier     *retry.Retrier
	logger      *zap.Logger
}

// New creates a new HTTP handler
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.GameService == nil {
		return nil, ErrNilGameService
	}
	if cfg.Verifier == nil {
		return nil, ErrNilVerifier
	}

	h := &Handler{
		gameService: cfg.GameService,
		verifier:    cfg.Verifier,
		issuer:      cfg.Issuer,
		retrier:     cfg.Retrier,
		logger:      cfg.Logger,
	}
	if h.retrier == nil {
		h.retrier = retry.New(nil, game.IsRetryable)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	h.logger = h.logger.Named("http")
	return h, nil
}

// Routes returns the router of the API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	if h.issuer != nil {
		r.Post("/sessions", h.createSession)
	}

	r.Route("/games", func(r chi.Router) {
		r.Get("/", h.listGames)
		r.Post("/", h.createGame)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Use(requireGameID)
			r.Get("/", h.getState)

			r.Group(func(r chi.Router) {
				r.Use(h.authenticate)
				r.Post("/join", h.joinGame)
				r.Post("/roll", h.roll)
				r.Post("/move", h.move)
				r.Post("/pass", h.pass)
				r.Post("/leave", h.leaveGame)
			})
		})
	})

	r.With(h.authenticate).Get("/me/game", h.myGame)
	return r
}

// envelope is the body of every response
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type loginKey struct{}

func loginFrom(ctx context.Context) string {
	login, _ := ctx.Value(loginKey{}).(string)
	return login
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		login, err := h.verifier.Verify(r.Context(), credential)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loginKey{}, login)))
	})
}

func requireGameID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !uuid.IsValid(chi.URLParam(r, "gameID")) {
			writeJSON(w, http.StatusBadRequest, envelope{Message: game.ErrInvalidGameID.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// statusOf maps an error kind to its HTTP status
func statusOf(err error) int {
	switch game.KindOf(err) {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindInvalidMove, game.KindInvalidInput:
		return http.StatusBadRequest
	case game.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		message = "internal error"
	}
	writeJSON(w, status, envelope{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decode(r *http.Request, target any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(target)
}

type sessionRequest struct {
	Login string `json:"login"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "invalid body"})
		return
	}
	token, err := h.issuer.Issue(req.Login)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: map[string]string{"token": token}})
}

type createGameRequest struct {
	PlayerCapacity  int `json:"player_capacity"`
	StepTimeSeconds int `json:"step_time"`
}

type gameSummary struct {
	GameID          string            `json:"game_id"`
	Status          models.GameStatus `json:"status"`
	PlayerCapacity  int               `json:"player_capacity"`
	StepTimeSeconds int               `json:"step_time"`
	CurrentPlayers  int               `json:"current_players"`
	Logins          []string          `json:"logins"`
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "invalid body"})
		return
	}

	out, err := h.gameService.CreateGame(r.Context(), &game.CreateGameInput{
		PlayerCapacity:  req.PlayerCapacity,
		StepTimeSeconds: req.StepTimeSeconds,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: gameSummary{
		GameID:          out.GameID,
		Status:          models.GameStatusWaiting,
		PlayerCapacity:  out.PlayerCapacity,
		StepTimeSeconds: out.StepTimeSeconds,
		Logins:          []string{},
	}})
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	out, err := h.gameService.ListGames(r.Context(), &game.ListGamesInput{
		Status: models.GameStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	games := make([]gameSummary, 0, len(out.Games))
	for _, g := range out.Games {
		games = append(games, gameSummary{
			GameID:          g.GameID,
			Status:          g.Status,
			PlayerCapacity:  g.PlayerCapacity,
			StepTimeSeconds: g.StepTimeSeconds,
			CurrentPlayers:  g.CurrentPlayers,
			Logins:          g.Logins,
		})
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: games})
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	out, err := retry.Do(r.Context(), h.retrier, func() (*game.GetStateOutput, error) {
		return h.gameService.GetState(r.Context(), &game.GetStateInput{GameID: chi.URLParam(r, "gameID")})
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: out.State})
}

type joinResponse struct {
	PlayerID       string       `json:"player_id"`
	Color          models.Color `json:"color"`
	SeatNumber     int          `json:"player_number"`
	PlayerCapacity int          `json:"player_capacity"`
	CurrentPlayers int          `json:"current_players"`
	GameStarted    bool         `json:"game_started"`
}

func (h *Handler) joinGame(w http.ResponseWriter, r *http.Request) {
	out, err := retry.Do(r.Context(), h.retrier, func() (*game.JoinGameOutput, error) {
		return h.gameService.JoinGame(r.Context(), &game.JoinGameInput{
			GameID: chi.URLParam(r, "gameID"),
			Login:  loginFrom(r.Context()),
		})
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: joinResponse{
		PlayerID:       out.PlayerID,
		Color:          out.Color,
		SeatNumber:     out.SeatNumber,
		PlayerCapacity: out.PlayerCapacity,
		CurrentPlayers: out.CurrentPlayers,
		GameStarted:    out.GameStarted,
	}})
}

type rollResponse struct {
	DiceValue        int `json:"dice"`
	RemainingSeconds int `json:"remaining_time"`
}

func (h *Handler) roll(w http.ResponseWriter, r *http.Request) {
	out, err := retry.Do(r.Context(), h.retrier, func() (*game.RollOutput, error) {
		return h.gameService.Roll(r.Context(), &game.RollInput{
			GameID: chi.URLParam(r, "gameID"),
			Login:  loginFrom(r.Context()),
		})
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rollResponse{
		DiceValue:        out.DiceValue,
		RemainingSeconds: out.RemainingSeconds,
	}})
}

type moveRequest struct {
	HorseID string `json:"horse_id"`
}

type moveResponse struct {
	From            int          `json:"from"`
	To              int          `json:"to"`
	DiceValue       int          `json:"dice"`
	CapturedHorseID string       `json:"captured_horse_id,omitempty"`
	Finished        bool         `json:"finished"`
	CanRollAgain    bool         `json:"can_roll_again"`
	NextTurnLogin   string       `json:"next_turn,omitempty"`
	WinnerColor     models.Color `json:"winner,omitempty"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "invalid body"})
		return
	}

	out, err := retry.Do(r.Context(), h.retrier, func() (*game.MoveOutput, error) {
		return h.gameService.Move(r.Context(), &game.MoveInput{
			GameID:  chi.URLParam(r, "gameID"),
			HorseID: req.HorseID,
			Login:   loginFrom(r.Context()),
		})
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: moveResponse{
		From:            out.From,
		To:              out.To,
		DiceValue:       out.DiceValue,
		CapturedHorseID: out.CapturedHorseID,
		Finished:        out.Finished,
		CanRollAgain:    out.CanRollAgain,
		NextTurnLogin:   out.NextTurnLogin,
		WinnerColor:     out.WinnerColor,
	}})
}

func (h *Handler) pass(w http.ResponseWriter, r *http.Request) {
	out, err := retry.Do(r.Context(), h.retrier, func() (*game.PassOutput, error) {
		return h.gameService.Pass(r.Context(), &game.PassInput{
			GameID: chi.URLParam(r, "gameID"),
			Login:  loginFrom(r.Context()),
		})
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"next_turn": out.NextTurnLogin}})
}

type leaveResponse struct {
	RemainingPlayerCount int  `json:"remaining_players"`
	GameDeleted          bool `json:"game_deleted"`
}

func (h *Handler) leaveGame(w http.ResponseWriter, r *http.Request) {
	out, err := retry.Do(r.Context(), h.retrier, func() (*game.LeaveGameOutput, error) {
		return h.gameService.LeaveGame(r.Context(), &game.LeaveGameInput{
			GameID: chi.URLParam(r, "gameID"),
			Login:  loginFrom(r.Context()),
		})
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: leaveResponse{
		RemainingPlayerCount: out.RemainingPlayerCount,
		GameDeleted:          out.GameDeleted,
	}})
}

func (h *Handler) myGame(w http.ResponseWriter, r *http.Request) {
	out, err := h.gameService.GetGameByLogin(r.Context(), &game.GetGameByLoginInput{Login: loginFrom(r.Context())})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"game_id": out.GameID}})
}
