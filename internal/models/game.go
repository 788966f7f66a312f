package models

import (
	"time"
)

// GameStatus represents the current state of a game
type GameStatus string

const (
	// GameStatusWaiting indicates a game is waiting for seats to fill
	GameStatusWaiting GameStatus = "waiting"

	// GameStatusStarted indicates a game is in progress
	GameStatusStarted GameStatus = "started"

	// GameStatusFinished indicates a winner was found and the game is frozen until teardown
	GameStatusFinished GameStatus = "finished"
)

// IsWaiting checks if the game is waiting for players
func (s GameStatus) IsWaiting() bool {
	return s == GameStatusWaiting
}

// IsStarted checks if turns are being played
func (s GameStatus) IsStarted() bool {
	return s == GameStatusStarted
}

// IsFinished checks if the game has a winner
func (s GameStatus) IsFinished() bool {
	return s == GameStatusFinished
}

// Game represents one board and its turn bookkeeping
type Game struct {
	// ID is the unique identifier for the game
	ID string

	// StepTimeSeconds is the per-turn budget
	StepTimeSeconds int

	// PlayerCapacity is the number of seats (2 or 4)
	PlayerCapacity int

	// Status is the current state of the game
	Status GameStatus

	// CurrentTurnPlayerID is the player allowed to act, empty while waiting
	CurrentTurnPlayerID string

	// WinnerColor is set once the game is finished
	WinnerColor Color

	// WinnerLogin is the login of the winning player
	WinnerLogin string

	// CreatedAt is when the game was created
	CreatedAt time.Time

	// UpdatedAt is when the game was last updated
	UpdatedAt time.Time
}

// StepTime returns the per-turn budget as a duration
func (g *Game) StepTime() time.Duration {
	return time.Duration(g.StepTimeSeconds) * time.Second
}
