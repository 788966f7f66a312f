package game

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite runs the same behaviour against every Repository implementation
type RepositoryTestSuite struct {
	suite.Suite
	open    func(t *testing.T) Repository
	repo    Repository
	ctx     context.Context
	testNow time.Time
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, &RepositoryTestSuite{open: openRedis})
}

func TestSQLiteRepositoryTestSuite(t *testing.T) {
	suite.Run(t, &RepositoryTestSuite{open: openSQLite})
}

func openRedis(t *testing.T) Repository {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo, err := NewRedis(&Config{RedisClient: client})
	if err != nil {
		t.Fatalf("new redis repository: %v", err)
	}
	return repo
}

func openSQLite(t *testing.T) Repository {
	repo, err := NewSQLite(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "horserace.db")})
	if err != nil {
		t.Fatalf("new sqlite repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func (s *RepositoryTestSuite) SetupTest() {
	s.repo = s.open(s.T())
	s.ctx = context.Background()
	s.testNow = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
}

func (s *RepositoryTestSuite) createGame(id string, capacity int) {
	err := s.repo.CreateGame(s.ctx, &CreateGameInput{
		Game: &models.Game{
			ID:              id,
			StepTimeSeconds: 30,
			PlayerCapacity:  capacity,
			Status:          models.GameStatusWaiting,
			CreatedAt:       s.testNow,
			UpdatedAt:       s.testNow,
		},
	})
	s.Require().NoError(err)
}

func seat(login string, seatNumber int) InsertPlayer {
	color, _ := models.ColorForSeat(seatNumber)
	playerID := "p-" + login
	horses := make([]*models.Horse, 0, models.HorsesPerPlayer)
	for n := 1; n <= models.HorsesPerPlayer; n++ {
		horses = append(horses, &models.Horse{
			ID:       fmt.Sprintf("h-%s-%d", login, n),
			PlayerID: playerID,
			Number:   n,
			Position: models.YardPosition,
		})
	}
	return InsertPlayer{
		Player: &models.Player{ID: playerID, Login: login, Color: color, SeatNumber: seatNumber},
		Horses: horses,
	}
}

func (s *RepositoryTestSuite) apply(gameID, login string, changes ...Change) (*UpdateOutput, error) {
	return s.repo.Update(s.ctx, &UpdateInput{
		GameID: gameID,
		Login:  login,
		Now:    s.testNow,
		Mutate: func(*View) ([]Change, error) {
			return changes, nil
		},
	})
}

func (s *RepositoryTestSuite) seatPlayers(gameID string, logins ...string) {
	for i, login := range logins {
		_, err := s.apply(gameID, login, seat(login, i+1))
		s.Require().NoError(err)
	}
}

func (s *RepositoryTestSuite) TestCreateAndGetState() {
	s.createGame("game-1", 4)

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Equal("game-1", state.Game.ID)
	s.Equal(30, state.Game.StepTimeSeconds)
	s.Equal(4, state.Game.PlayerCapacity)
	s.Equal(models.GameStatusWaiting, state.Game.Status)
	s.Empty(state.Game.CurrentTurnPlayerID)
	s.Equal(s.testNow.Unix(), state.Game.CreatedAt.Unix())
	s.Empty(state.Players)
	s.Empty(state.Horses)
	s.Empty(state.Dice)
}

func (s *RepositoryTestSuite) TestCreateGameTwiceConflicts() {
	s.createGame("game-1", 2)

	err := s.repo.CreateGame(s.ctx, &CreateGameInput{
		Game: &models.Game{ID: "game-1", StepTimeSeconds: 15, PlayerCapacity: 2, Status: models.GameStatusWaiting},
	})
	s.ErrorIs(err, ErrConflict)
}

func (s *RepositoryTestSuite) TestGetStateMissingGame() {
	_, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "nope"})
	s.ErrorIs(err, ErrGameNotFound)

	_, err = s.apply("nope", "", SetTurn{})
	s.ErrorIs(err, ErrGameNotFound)
}

func (s *RepositoryTestSuite) TestSeatPlayers() {
	s.createGame("game-1", 4)
	s.seatPlayers("game-1", "alice", "bob")

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Require().Len(state.Players, 2)
	s.Equal("alice", state.Players[0].Login)
	s.Equal(models.ColorGreen, state.Players[0].Color)
	s.Equal("game-1", state.Players[0].GameID)
	s.Equal("bob", state.Players[1].Login)
	s.Equal(2, state.Players[1].SeatNumber)
	s.Len(state.Horses, 8)
	s.Len(state.HorsesOf("p-bob"), models.HorsesPerPlayer)
	for _, h := range state.Horses {
		s.Equal(models.YardPosition, h.Position)
	}

	out, err := s.repo.GetGameByLogin(s.ctx, &GetGameByLoginInput{Login: "bob"})
	s.Require().NoError(err)
	s.Equal("game-1", out.GameID)

	_, err = s.repo.GetGameByLogin(s.ctx, &GetGameByLoginInput{Login: "carol"})
	s.ErrorIs(err, ErrPlayerNotFound)
}

func (s *RepositoryTestSuite) TestSeatTakenConflicts() {
	s.createGame("game-1", 4)
	s.seatPlayers("game-1", "alice")

	_, err := s.apply("game-1", "bob", seat("bob", 1))
	s.ErrorIs(err, ErrConflict)

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Len(state.Players, 1)
}

func (s *RepositoryTestSuite) TestMutateErrorIsReturnedUnchanged() {
	s.createGame("game-1", 2)
	boom := errors.New("boom")

	_, err := s.repo.Update(s.ctx, &UpdateInput{
		GameID: "game-1",
		Mutate: func(*View) ([]Change, error) {
			return nil, boom
		},
	})
	s.Equal(boom, err)
}

func (s *RepositoryTestSuite) TestNoChangesReturnsCurrentState() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice")

	out, err := s.apply("game-1", "")
	s.Require().NoError(err)
	s.Require().NotNil(out.State)
	s.Len(out.State.Players, 1)
	s.Empty(out.Changes)
}

func (s *RepositoryTestSuite) TestFailedUpdateWritesNothing() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice", "bob")

	_, err := s.apply("game-1", "",
		MoveHorse{HorseID: "h-alice-1", Position: 0},
		SetTurn{Expected: "p-bob", Next: "p-alice"},
	)
	s.ErrorIs(err, ErrConflict)

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Equal(models.YardPosition, state.HorseByID("h-alice-1").Position)
	s.Empty(state.Game.CurrentTurnPlayerID)
}

func (s *RepositoryTestSuite) TestSetTurnIsConditional() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice", "bob")

	out, err := s.apply("game-1", "",
		SetStatus{Status: models.GameStatusStarted},
		SetTurn{Expected: "", Next: "p-alice"},
	)
	s.Require().NoError(err)
	s.Equal("p-alice", out.State.Game.CurrentTurnPlayerID)
	s.Equal(models.GameStatusStarted, out.State.Game.Status)

	// a second writer that still believes nobody holds the turn loses
	_, err = s.apply("game-1", "", SetTurn{Expected: "", Next: "p-bob"})
	s.ErrorIs(err, ErrConflict)

	_, err = s.apply("game-1", "", SetTurn{Expected: "p-alice", Next: "p-bob"})
	s.Require().NoError(err)

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Equal("p-bob", state.Game.CurrentTurnPlayerID)
}

func (s *RepositoryTestSuite) TestConcurrentWriterConflicts() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice", "bob")

	_, err := s.repo.Update(s.ctx, &UpdateInput{
		GameID: "game-1",
		Mutate: func(view *View) ([]Change, error) {
			// another writer commits between our read and our write
			_, innerErr := s.apply("game-1", "", SetTurn{Expected: "", Next: "p-bob"})
			s.Require().NoError(innerErr)

			return []Change{SetTurn{Expected: view.State.Game.CurrentTurnPlayerID, Next: "p-alice"}}, nil
		},
	})
	s.ErrorIs(err, ErrConflict)

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Equal("p-bob", state.Game.CurrentTurnPlayerID)
}

func (s *RepositoryTestSuite) TestViewShowsSeatInOtherGame() {
	s.createGame("game-1", 2)
	s.createGame("game-2", 2)
	s.seatPlayers("game-1", "alice")

	var seated string
	_, err := s.repo.Update(s.ctx, &UpdateInput{
		GameID: "game-2",
		Login:  "alice",
		Strict: true,
		Mutate: func(view *View) ([]Change, error) {
			seated = view.SeatedGameID
			return nil, nil
		},
	})
	s.Require().NoError(err)
	s.Equal("game-1", seated)
}

func (s *RepositoryTestSuite) TestDiceLifecycle() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice", "bob")

	roll := func(id string, value int) *models.DiceRoll {
		return &models.DiceRoll{
			ID:        id,
			PlayerID:  "p-alice",
			Value:     value,
			ExpiresAt: s.testNow.Add(30 * time.Second),
			CreatedAt: s.testNow,
		}
	}

	_, err := s.apply("game-1", "", InsertDice{Dice: roll("d-1", 6)})
	s.Require().NoError(err)

	// at most one pending dice per player
	_, err = s.apply("game-1", "", InsertDice{Dice: roll("d-2", 3)})
	s.ErrorIs(err, ErrConflict)

	out, err := s.apply("game-1", "",
		RevealDice{DiceID: "d-1"},
		ConsumeDice{DiceID: "d-1"},
		InsertDice{Dice: roll("d-2", 3)},
	)
	s.Require().NoError(err)
	pending := out.State.PendingDice("p-alice")
	s.Require().NotNil(pending)
	s.Equal("d-2", pending.ID)

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Len(state.Dice, 2)
	pending = state.PendingDice("p-alice")
	s.Require().NotNil(pending)
	s.Equal(3, pending.Value)
	s.False(pending.Rolled)
	s.Equal(s.testNow.Add(30*time.Second).Unix(), pending.ExpiresAt.Unix())

	_, err = s.apply("game-1", "", ConsumeDice{DiceID: "d-1"})
	s.ErrorIs(err, ErrConflict)

	_, err = s.apply("game-1", "", ClearDice{PlayerID: "p-alice"})
	s.Require().NoError(err)

	state, err = s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Empty(state.Dice)
}

func (s *RepositoryTestSuite) TestRemovePlayer() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice", "bob")

	_, err := s.apply("game-1", "", InsertDice{Dice: &models.DiceRoll{
		ID: "d-1", PlayerID: "p-bob", Value: 2, ExpiresAt: s.testNow, CreatedAt: s.testNow,
	}})
	s.Require().NoError(err)

	out, err := s.apply("game-1", "bob", RemovePlayer{PlayerID: "p-bob"})
	s.Require().NoError(err)
	s.Len(out.State.Players, 1)
	s.Len(out.State.Horses, models.HorsesPerPlayer)
	s.Empty(out.State.Dice)

	_, err = s.repo.GetGameByLogin(s.ctx, &GetGameByLoginInput{Login: "bob"})
	s.ErrorIs(err, ErrPlayerNotFound)

	// removing twice is a conflict, the seat is already gone
	_, err = s.apply("game-1", "bob", RemovePlayer{PlayerID: "p-bob"})
	s.ErrorIs(err, ErrConflict)
}

func (s *RepositoryTestSuite) TestDeleteGame() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice", "bob")

	out, err := s.apply("game-1", "", DeleteGame{})
	s.Require().NoError(err)
	s.Nil(out.State)

	_, err = s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.ErrorIs(err, ErrGameNotFound)

	_, err = s.repo.GetGameByLogin(s.ctx, &GetGameByLoginInput{Login: "alice"})
	s.ErrorIs(err, ErrPlayerNotFound)

	list, err := s.repo.ListGames(s.ctx, &ListGamesInput{})
	s.Require().NoError(err)
	s.Empty(list.States)
}

func (s *RepositoryTestSuite) TestListGamesByStatus() {
	s.createGame("game-1", 2)
	s.testNow = s.testNow.Add(time.Minute)
	s.createGame("game-2", 2)

	_, err := s.apply("game-2", "", SetStatus{Status: models.GameStatusStarted})
	s.Require().NoError(err)

	all, err := s.repo.ListGames(s.ctx, &ListGamesInput{})
	s.Require().NoError(err)
	s.Require().Len(all.States, 2)
	s.Equal("game-1", all.States[0].Game.ID)
	s.Equal("game-2", all.States[1].Game.ID)

	started, err := s.repo.ListGames(s.ctx, &ListGamesInput{Status: models.GameStatusStarted})
	s.Require().NoError(err)
	s.Require().Len(started.States, 1)
	s.Equal("game-2", started.States[0].Game.ID)
}

func (s *RepositoryTestSuite) TestFinishRecordsWinner() {
	s.createGame("game-1", 2)
	s.seatPlayers("game-1", "alice")

	_, err := s.apply("game-1", "", SetStatus{
		Status:      models.GameStatusFinished,
		WinnerColor: models.ColorGreen,
		WinnerLogin: "alice",
	})
	s.Require().NoError(err)

	state, err := s.repo.GetState(s.ctx, &GetStateInput{GameID: "game-1"})
	s.Require().NoError(err)
	s.Equal(models.GameStatusFinished, state.Game.Status)
	s.Equal(models.ColorGreen, state.Game.WinnerColor)
	s.Equal("alice", state.Game.WinnerLogin)
}
