package game

import (
	"testing"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(capacity int) *models.GameState {
	return &models.GameState{
		Game: &models.Game{ID: "game-1", PlayerCapacity: capacity, Status: models.GameStatusWaiting},
	}
}

func TestApplyChangesRejectsFullGame(t *testing.T) {
	state := newState(2)

	_, err := ApplyChanges(state, []Change{seat("alice", 1), seat("bob", 2)})
	require.NoError(t, err)

	_, err = ApplyChanges(state, []Change{seat("carol", 3)})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, state.Players, 2)
}

func TestApplyChangesRejectsDuplicateLogin(t *testing.T) {
	state := newState(4)

	_, err := ApplyChanges(state, []Change{seat("alice", 1)})
	require.NoError(t, err)

	_, err = ApplyChanges(state, []Change{seat("alice", 2)})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyChangesKeepsSeatOrder(t *testing.T) {
	state := newState(4)

	_, err := ApplyChanges(state, []Change{seat("dave", 4), seat("alice", 1), seat("carol", 3)})
	require.NoError(t, err)

	require.Len(t, state.Players, 3)
	assert.Equal(t, 1, state.Players[0].SeatNumber)
	assert.Equal(t, 3, state.Players[1].SeatNumber)
	assert.Equal(t, 4, state.Players[2].SeatNumber)
}

func TestApplyChangesStopsAtDelete(t *testing.T) {
	state := newState(2)

	deleted, err := ApplyChanges(state, []Change{DeleteGame{}, MoveHorse{HorseID: "missing"}})
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestApplyChangesMissingHorse(t *testing.T) {
	state := newState(2)

	_, err := ApplyChanges(state, []Change{MoveHorse{HorseID: "missing", Position: 3}})
	assert.ErrorIs(t, err, ErrConflict)
}
