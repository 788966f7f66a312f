package game

import (
	"testing"

	"github.com/KirkDiggler/horserace/internal/board"
	"github.com/KirkDiggler/horserace/internal/models"
	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raceState(status models.GameStatus, logins ...string) *models.GameState {
	state := &models.GameState{
		Game: &models.Game{ID: "game-1", Status: status, PlayerCapacity: 4, StepTimeSeconds: 30},
	}
	for i, login := range logins {
		color, _ := models.ColorForSeat(i + 1)
		player := &models.Player{ID: "p-" + login, GameID: "game-1", Login: login, Color: color, SeatNumber: i + 1}
		state.Players = append(state.Players, player)
		for n := 1; n <= models.HorsesPerPlayer; n++ {
			state.Horses = append(state.Horses, &models.Horse{
				ID:       player.ID + "-" + string(rune('0'+n)),
				PlayerID: player.ID,
				Number:   n,
				Position: models.YardPosition,
			})
		}
	}
	return state
}

func TestDetectWinner(t *testing.T) {
	t.Run("waiting game with one player has no winner", func(t *testing.T) {
		assert.Nil(t, detectWinner(raceState(models.GameStatusWaiting, "alice")))
	})

	t.Run("last player standing wins", func(t *testing.T) {
		winner := detectWinner(raceState(models.GameStatusStarted, "bob"))
		require.NotNil(t, winner)
		assert.Equal(t, "bob", winner.Login)
	})

	t.Run("all horses home wins", func(t *testing.T) {
		state := raceState(models.GameStatusStarted, "alice", "bob")
		for _, h := range state.HorsesOf("p-bob") {
			h.Position = board.FinishCell(models.ColorYellow)
		}
		winner := detectWinner(state)
		require.NotNil(t, winner)
		assert.Equal(t, models.ColorYellow, winner.Color)
	})

	t.Run("three horses home is not enough", func(t *testing.T) {
		state := raceState(models.GameStatusStarted, "alice", "bob")
		for _, h := range state.HorsesOf("p-alice")[:3] {
			h.Position = board.FinishCell(models.ColorGreen)
		}
		assert.Nil(t, detectWinner(state))
	})

	t.Run("finished game is not won twice", func(t *testing.T) {
		assert.Nil(t, detectWinner(raceState(models.GameStatusFinished, "alice")))
	})
}

func TestWithLifecycle(t *testing.T) {
	state := raceState(models.GameStatusStarted, "alice", "bob")
	finish := board.FinishCell(models.ColorGreen)
	horses := state.HorsesOf("p-alice")
	for _, h := range horses[:3] {
		h.Position = finish
	}
	horses[3].Position = finish - 2

	changes, err := withLifecycle(state, []gameRepo.Change{
		gameRepo.MoveHorse{HorseID: horses[3].ID, Position: finish},
	})
	require.NoError(t, err)
	require.Len(t, changes, 2)

	win := finishedBy(changes)
	require.NotNil(t, win)
	assert.Equal(t, models.ColorGreen, win.WinnerColor)
	assert.Equal(t, "alice", win.WinnerLogin)
	assert.Equal(t, finish-2, horses[3].Position, "the projection never touches the state read")

	changes, err = withLifecycle(state, []gameRepo.Change{
		gameRepo.MoveHorse{HorseID: horses[3].ID, Position: finish - 1},
	})
	require.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.Nil(t, finishedBy(changes))

	changes, err = withLifecycle(state, nil)
	require.NoError(t, err)
	assert.Empty(t, changes)

	_, err = withLifecycle(state, []gameRepo.Change{gameRepo.MoveHorse{HorseID: "missing", Position: 3}})
	assert.ErrorIs(t, err, gameRepo.ErrConflict)
}
