package models

// Player represents a seat taken by a login in a game
type Player struct {
	// ID is the unique identifier for the seat
	ID string

	// GameID is the game the seat belongs to
	GameID string

	// Login is the external identity of the player
	Login string

	// Color is the side of the board the player races
	Color Color

	// SeatNumber is the 1-based seat; seat order defines turn rotation
	SeatNumber int
}

// HorsesPerPlayer is the number of horses every player owns
const HorsesPerPlayer = 4

// YardPosition is the position of a horse that has not left the yard
const YardPosition = -1

// Horse is a single piece on the board
type Horse struct {
	// ID is the unique identifier for the horse
	ID string

	// PlayerID is the owner of the horse
	PlayerID string

	// Number is the 1-based index of the horse among its owner's horses
	Number int

	// Position is YardPosition, a main track cell (0..51) or a home lane cell
	Position int
}

// InYard reports whether the horse is still waiting for a six
func (h *Horse) InYard() bool {
	return h.Position == YardPosition
}
