package discord

import (
	"testing"

	"github.com/KirkDiggler/horserace/internal/board"
	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/KirkDiggler/horserace/internal/services/game"
	"github.com/KirkDiggler/horserace/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(status models.GameStatus) *models.Snapshot {
	return &models.Snapshot{
		GameID:         "game-1",
		Status:         status,
		CurrentTurn:    "alice",
		PlayerCapacity: 2,
		Players: []*models.PlayerSnapshot{
			{
				Login:  "alice",
				Color:  models.ColorGreen,
				IsTurn: true,
				Horses: []*models.HorseSnapshot{
					{HorseID: "h-a1", Number: 1, Position: models.YardPosition},
					{HorseID: "h-a2", Number: 2, Position: 14},
				},
			},
			{
				Login: "bob",
				Color: models.ColorYellow,
				Horses: []*models.HorseSnapshot{
					{HorseID: "h-b1", Number: 1, Position: board.FinishCell(models.ColorYellow)},
				},
			},
		},
	}
}

func customIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	for _, row := range components {
		for _, c := range row.(discordgo.ActionsRow).Components {
			ids = append(ids, c.(discordgo.Button).CustomID)
		}
	}
	return ids
}

func TestHorseLabel(t *testing.T) {
	assert.Equal(t, "yard", horseLabel(models.YardPosition, models.ColorGreen))
	assert.Equal(t, "home 🏁", horseLabel(board.FinishCell(models.ColorBlue), models.ColorBlue))
	assert.Contains(t, horseLabel(board.SafeCells()[0], models.ColorRed), "⭐")
}

func TestRenderStateWaitingOffersJoin(t *testing.T) {
	r := renderState(testSnapshot(models.GameStatusWaiting), &messaging.GetGameStatusMessageOutput{Title: "Waiting"})

	assert.Equal(t, colorWaiting, r.Embed.Color)
	assert.Equal(t, []string{ButtonJoinPrefix + "game-1", ButtonRefresh}, customIDs(r.Components))
	assert.False(t, r.Ephemeral)
}

func TestRenderStateStartedOffersTurnButtons(t *testing.T) {
	state := testSnapshot(models.GameStatusStarted)
	state.DiceValue = 4
	r := renderState(state, &messaging.GetGameStatusMessageOutput{Title: "alice to play"})

	require.Len(t, r.Embed.Fields, 3)
	assert.Equal(t, "🟢 alice 🎲", r.Embed.Fields[0].Name)
	assert.Equal(t, "#1 yard\n#2 cell 14", r.Embed.Fields[0].Value)
	assert.Equal(t, "4", r.Embed.Fields[2].Value)

	ids := customIDs(r.Components)
	assert.Contains(t, ids, ButtonRoll)
	assert.Contains(t, ids, ButtonMovePrefix+"4")
}

func TestRenderStateFinishedHasNoButtons(t *testing.T) {
	r := renderState(testSnapshot(models.GameStatusFinished), &messaging.GetGameStatusMessageOutput{Title: "Race over"})

	assert.Equal(t, colorWinner, r.Embed.Color)
	assert.Empty(t, r.Components)
}

func TestRenderGames(t *testing.T) {
	r := renderGames(nil)
	assert.Contains(t, r.Embed.Description, "/ludo create")

	r = renderGames([]*game.GameSummary{{
		GameID:          "game-1",
		Status:          models.GameStatusWaiting,
		PlayerCapacity:  4,
		StepTimeSeconds: 30,
		CurrentPlayers:  1,
		Logins:          []string{"alice"},
	}})
	require.Len(t, r.Embed.Fields, 1)
	assert.Equal(t, "waiting, 1/4 seats, 30s turns\nalice", r.Embed.Fields[0].Value)
}

func TestHorseIDFor(t *testing.T) {
	state := testSnapshot(models.GameStatusStarted)

	id, ok := horseIDFor(state, "alice", 2)
	assert.True(t, ok)
	assert.Equal(t, "h-a2", id)

	_, ok = horseIDFor(state, "alice", 3)
	assert.False(t, ok)

	_, ok = horseIDFor(state, "carol", 1)
	assert.False(t, ok)
}
