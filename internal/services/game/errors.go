package game

import (
	"errors"

	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
)

// GameError is a custom error type for game-related errors
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

// Kind returns the class of the error callers dispatch on
func (e GameError) Kind() ErrorKind {
	if kind, ok := errorKinds[e]; ok {
		return kind
	}
	return KindInternal
}

// ErrorKind classifies errors for callers: only KindConflict is worth retrying
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidMove  ErrorKind = "invalid_move"
	KindConflict     ErrorKind = "conflict"
	KindInvalidInput ErrorKind = "invalid_input"
	KindInternal     ErrorKind = "internal"
)

// Define errors
const (
	ErrGameNotFound     GameError = "game not found"
	ErrPlayerNotFound   GameError = "player not found"
	ErrHorseNotFound    GameError = "horse not found"
	ErrNotYourTurn      GameError = "not your turn"
	ErrNotYourHorse     GameError = "horse belongs to another player"
	ErrGameFinished     GameError = "game is finished"
	ErrGameNotStarted   GameError = "game has not started"
	ErrGameStarted      GameError = "game already started"
	ErrAlreadyJoined    GameError = "already joined this game"
	ErrSeatedElsewhere  GameError = "already seated in another game"
	ErrRoomFull         GameError = "room is full"
	ErrMustMoveFirst    GameError = "dice already rolled, move first"
	ErrRollFirst        GameError = "roll dice first"
	ErrInvalidMove      GameError = "invalid move"
	ErrTurnExpired      GameError = "turn timed out"
	ErrConflict         GameError = "game changed concurrently, try again"
	ErrInvalidCapacity  GameError = "player capacity must be 2 or 4"
	ErrInvalidStepTime  GameError = "step time must be 15, 30 or 45 seconds"
	ErrInvalidLogin     GameError = "login cannot be empty"
	ErrInvalidGameID    GameError = "game ID cannot be empty"
	ErrNilConfig        GameError = "config cannot be nil"
	ErrNilGameRepo      GameError = "game repository cannot be nil"
	ErrNilDiceRoller    GameError = "dice roller cannot be nil"
	ErrNilClock         GameError = "clock cannot be nil"
	ErrNilUUIDGenerator GameError = "UUID generator cannot be nil"
)

var errorKinds = map[GameError]ErrorKind{
	ErrGameNotFound:    KindNotFound,
	ErrPlayerNotFound:  KindNotFound,
	ErrHorseNotFound:   KindNotFound,
	ErrNotYourTurn:     KindForbidden,
	ErrNotYourHorse:    KindForbidden,
	ErrGameFinished:    KindForbidden,
	ErrGameNotStarted:  KindForbidden,
	ErrGameStarted:     KindForbidden,
	ErrAlreadyJoined:   KindInvalidInput,
	ErrSeatedElsewhere: KindInvalidInput,
	ErrRoomFull:        KindInvalidInput,
	ErrMustMoveFirst:   KindInvalidMove,
	ErrRollFirst:       KindInvalidMove,
	ErrInvalidMove:     KindInvalidMove,
	ErrTurnExpired:     KindConflict,
	ErrConflict:        KindConflict,
	ErrInvalidCapacity: KindInvalidInput,
	ErrInvalidStepTime: KindInvalidInput,
	ErrInvalidLogin:    KindInvalidInput,
	ErrInvalidGameID:   KindInvalidInput,
}

// KindOf classifies any error returned by the service. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var gameErr GameError
	if errors.As(err, &gameErr) {
		return gameErr.Kind()
	}
	switch {
	case errors.Is(err, gameRepo.ErrConflict):
		return KindConflict
	case errors.Is(err, gameRepo.ErrGameNotFound), errors.Is(err, gameRepo.ErrPlayerNotFound):
		return KindNotFound
	}
	return KindInternal
}

// IsRetryable reports whether the caller may repeat the request unchanged
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}
