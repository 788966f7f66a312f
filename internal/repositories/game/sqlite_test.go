package game

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteRequiresPath(t *testing.T) {
	_, err := NewSQLite(&SQLiteConfig{Path: "  "})
	assert.Error(t, err)

	_, err = NewSQLite(nil)
	assert.Error(t, err)
}

func TestNewSQLiteReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "horserace.db")
	ctx := context.Background()

	repo, err := NewSQLite(&SQLiteConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, repo.CreateGame(ctx, &CreateGameInput{
		Game: &models.Game{ID: "game-1", StepTimeSeconds: 15, PlayerCapacity: 2, Status: models.GameStatusWaiting},
	}))
	require.NoError(t, repo.Close())

	// migrations already recorded must not run again
	repo, err = NewSQLite(&SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer repo.Close()

	state, err := repo.GetState(ctx, &GetStateInput{GameID: "game-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, state.Game.PlayerCapacity)
}

func TestSQLiteRejectsInvalidCapacity(t *testing.T) {
	repo, err := NewSQLite(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "horserace.db")})
	require.NoError(t, err)
	defer repo.Close()

	err = repo.CreateGame(context.Background(), &CreateGameInput{
		Game: &models.Game{ID: "game-1", StepTimeSeconds: 15, PlayerCapacity: 3, Status: models.GameStatusWaiting},
	})
	assert.Error(t, err)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id TEXT);\n", extractUpMigration(content))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}
