package models

import (
	"time"
)

// DiceRoll is the dice value handed to the turn holder
type DiceRoll struct {
	// ID is the unique identifier for the roll
	ID string

	// PlayerID is the player the roll belongs to
	PlayerID string

	// Value is the result of the dice roll (1..6)
	Value int

	// Rolled is set once the holder revealed the value
	Rolled bool

	// Consumed is set once a move used the value
	Consumed bool

	// ExpiresAt is when the turn times out if the roll is still unused
	ExpiresAt time.Time

	// CreatedAt is when the roll was generated
	CreatedAt time.Time
}

// RemainingSeconds returns the whole seconds left before the roll expires
func (d *DiceRoll) RemainingSeconds(now time.Time) int {
	return int(d.ExpiresAt.Sub(now) / time.Second)
}

// IsExpired reports whether less than a whole second is left at now
func (d *DiceRoll) IsExpired(now time.Time) bool {
	return d.RemainingSeconds(now) <= 0
}
