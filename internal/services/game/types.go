package game

import (
	"time"

	"github.com/KirkDiggler/horserace/internal/common/clock"
	"github.com/KirkDiggler/horserace/internal/common/uuid"
	"github.com/KirkDiggler/horserace/internal/dice"
	"github.com/KirkDiggler/horserace/internal/models"
	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
	"go.uber.org/zap"
)

// DefaultTeardownDelay is how long a finished game stays readable
const DefaultTeardownDelay = 10 * time.Second

var (
	// ValidCapacities are the seat counts a room can be created with
	ValidCapacities = []int{2, 4}

	// ValidStepTimes are the per-turn budgets in seconds a room can be created with
	ValidStepTimes = []int{15, 30, 45}
)

// Config holds configuration for the game service
type Config struct {
	// TeardownDelay is the grace period between a win and the game's deletion
	TeardownDelay time.Duration

	// Repository dependencies
	GameRepo gameRepo.Repository

	// Service dependencies
	DiceRoller    dice.Roller
	Clock         clock.Clock
	UUIDGenerator uuid.UUID

	// Broadcaster receives committed events, optional
	Broadcaster Broadcaster

	// Logger is optional
	Logger *zap.Logger
}

// CreateGameInput contains parameters for creating a new game
type CreateGameInput struct {
	// PlayerCapacity is the number of seats, 2 or 4
	PlayerCapacity int

	// StepTimeSeconds is the per-turn budget, 15, 30 or 45
	StepTimeSeconds int
}

// CreateGameOutput contains the result of creating a new game
type CreateGameOutput struct {
	GameID          string
	PlayerCapacity  int
	StepTimeSeconds int
}

// ListGamesInput contains parameters for listing games
type ListGamesInput struct {
	// Status keeps only games in this status when set
	Status models.GameStatus
}

// GameSummary is one room in a listing
type GameSummary struct {
	GameID          string
	Status          models.GameStatus
	PlayerCapacity  int
	StepTimeSeconds int
	CurrentPlayers  int
	Logins          []string
}

// ListGamesOutput contains the rooms, oldest first
type ListGamesOutput struct {
	Games []*GameSummary
}

// JoinGameInput contains parameters for joining a game
type JoinGameInput struct {
	GameID string
	Login  string
}

// JoinGameOutput contains the seat assigned to the player
type JoinGameOutput struct {
	PlayerID       string
	Color          models.Color
	SeatNumber     int
	PlayerCapacity int

	// CurrentPlayers is the seat count after joining
	CurrentPlayers int

	// GameStarted is set when this join filled the last seat
	GameStarted bool
}

// GetStateInput contains parameters for reading a game
type GetStateInput struct {
	GameID string
}

// GetStateOutput contains the game snapshot
type GetStateOutput struct {
	State *models.Snapshot
}

// RollInput contains parameters for rolling the dice
type RollInput struct {
	GameID string
	Login  string
}

// RollOutput contains the rolled value
type RollOutput struct {
	DiceValue int

	// RemainingSeconds is the time left to move
	RemainingSeconds int
}

// MoveInput contains parameters for moving a horse
type MoveInput struct {
	GameID  string
	HorseID string
	Login   string
}

// MoveOutput contains the outcome of a move
type MoveOutput struct {
	From      int
	To        int
	DiceValue int

	// CapturedHorseID is the horse sent back to the yard, empty if none
	CapturedHorseID string

	// Finished is set when the horse reached its finish cell
	Finished bool

	// CanRollAgain is set after a six, the mover keeps the turn
	CanRollAgain bool

	NextTurnLogin string

	// WinnerColor is set when this move won the game
	WinnerColor models.Color
}

// PassInput contains parameters for passing the turn
type PassInput struct {
	GameID string
	Login  string
}

// PassOutput contains who plays next
type PassOutput struct {
	NextTurnLogin string
}

// LeaveGameInput contains parameters for leaving a game
type LeaveGameInput struct {
	GameID string
	Login  string
}

// LeaveGameOutput contains the result of leaving a game
type LeaveGameOutput struct {
	RemainingPlayerCount int

	// GameDeleted is set when the last player left
	GameDeleted bool
}

// GetGameByLoginInput contains parameters for finding a player's game
type GetGameByLoginInput struct {
	Login string
}

// GetGameByLoginOutput contains the game the login is seated in
type GetGameByLoginOutput struct {
	GameID string
}
