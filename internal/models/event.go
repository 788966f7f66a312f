package models

import (
	"time"
)

// EventType categorises broadcast events
type EventType string

const (
	// EventStateUpdated carries a fresh snapshot after a committed change
	EventStateUpdated EventType = "gameStateUpdate"

	// EventPlayerLeft announces that a seat was freed
	EventPlayerLeft EventType = "playerLeft"

	// EventGameWon announces the winner of a game
	EventGameWon EventType = "gameWon"

	// EventGameTornDown announces that a finished game was deleted
	EventGameTornDown EventType = "gameTornDown"
)

// Event is a message for everybody watching a game
type Event struct {
	Type        EventType `json:"type"`
	GameID      string    `json:"game_id"`
	Login       string    `json:"login,omitempty"`
	WinnerColor Color     `json:"winner_color,omitempty"`
	WinnerLogin string    `json:"winner_login,omitempty"`
	State       *Snapshot `json:"state,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
