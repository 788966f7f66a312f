package game

import (
	"errors"
	"time"

	"github.com/KirkDiggler/horserace/internal/models"
)

var (
	// ErrGameNotFound is returned when a game is not found
	ErrGameNotFound = errors.New("game not found")

	// ErrPlayerNotFound is returned when a login is not seated anywhere
	ErrPlayerNotFound = errors.New("player not found")

	// ErrConflict is returned when a concurrent writer changed the aggregate first
	ErrConflict = errors.New("concurrent update conflict")
)

type CreateGameInput struct {
	Game *models.Game
}

type GetStateInput struct {
	GameID string
}

// View is what an update callback gets to decide on
type View struct {
	// State is the aggregate as read inside the transaction
	State *models.GameState

	// SeatedGameID is the game UpdateInput.Login is seated in, empty if none
	SeatedGameID string
}

// MutateFunc decides which changes to apply. Returning an error aborts the update
// and the error is handed back to the caller unchanged.
type MutateFunc func(view *View) ([]Change, error)

type UpdateInput struct {
	GameID string

	// Login is the actor whose seat in any game is observed in the same transaction.
	// Only this login may be seated by an InsertPlayer change.
	Login string

	// Strict asks for the strictest isolation the store offers
	Strict bool

	// Now stamps the game's UpdatedAt when changes are written
	Now time.Time

	Mutate MutateFunc
}

type UpdateOutput struct {
	// State is the aggregate after the changes, nil when the game was deleted
	State *models.GameState

	// Changes are the changes that were committed
	Changes []Change
}

type ListGamesInput struct {
	// Status keeps only games in this status when set
	Status models.GameStatus
}

type ListGamesOutput struct {
	States []*models.GameState
}

type GetGameByLoginInput struct {
	Login string
}

type GetGameByLoginOutput struct {
	GameID string
}
