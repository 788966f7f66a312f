package game

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/horserace/internal/repositories/game Repository

import (
	"context"

	"github.com/KirkDiggler/horserace/internal/models"
)

// Repository persists game aggregates and applies changes to them transactionally
type Repository interface {
	// CreateGame persists a new game without players
	CreateGame(ctx context.Context, input *CreateGameInput) error

	// GetState loads a whole aggregate outside of any transaction
	GetState(ctx context.Context, input *GetStateInput) (*models.GameState, error)

	// Update runs input.Mutate against a consistent view of the aggregate and applies the
	// returned changes atomically. Concurrent writers are detected and reported as ErrConflict.
	Update(ctx context.Context, input *UpdateInput) (*UpdateOutput, error)

	// ListGames returns every stored aggregate, optionally filtered by status
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)

	// GetGameByLogin returns the game a login is seated in
	GetGameByLogin(ctx context.Context, input *GetGameByLoginInput) (*GetGameByLoginOutput, error)
}
