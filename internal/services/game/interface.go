package game

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/horserace/internal/services/game Service

import (
	"context"

	"github.com/KirkDiggler/horserace/internal/models"
)

// Service defines the interface for game operations
type Service interface {
	// CreateGame opens a room waiting for players
	CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error)

	// ListGames returns every room with its seats
	ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error)

	// JoinGame seats a login on the lowest free seat, starting the game when it is full
	JoinGame(ctx context.Context, input *JoinGameInput) (*JoinGameOutput, error)

	// GetState returns the snapshot of a game after applying any pending timeout
	GetState(ctx context.Context, input *GetStateInput) (*GetStateOutput, error)

	// Roll reveals the turn holder's dice
	Roll(ctx context.Context, input *RollInput) (*RollOutput, error)

	// Move moves a horse by the turn holder's dice
	Move(ctx context.Context, input *MoveInput) (*MoveOutput, error)

	// Pass gives the turn to the next seat
	Pass(ctx context.Context, input *PassInput) (*PassOutput, error)

	// LeaveGame frees a seat, deleting the game with its last player
	LeaveGame(ctx context.Context, input *LeaveGameInput) (*LeaveGameOutput, error)

	// GetGameByLogin finds the game a login is seated in
	GetGameByLogin(ctx context.Context, input *GetGameByLoginInput) (*GetGameByLoginOutput, error)
}

// Broadcaster delivers events to everybody watching a game
type Broadcaster interface {
	Publish(ctx context.Context, event *models.Event)
}

// NopBroadcaster drops every event
type NopBroadcaster struct{}

// Publish implements Broadcaster
func (NopBroadcaster) Publish(context.Context, *models.Event) {}
