package game

import (
	"context"
	"testing"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	repo   Repository
	ctx    context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	// Create a new miniredis server for each test
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := NewRedis(&Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()

	s.Require().NoError(s.repo.CreateGame(s.ctx, &CreateGameInput{
		Game: &models.Game{ID: "game-1", StepTimeSeconds: 30, PlayerCapacity: 2, Status: models.GameStatusWaiting},
	}))
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositorySpecifics(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) TestNewRedisValidatesConfig() {
	_, err := NewRedis(nil)
	s.Error(err)

	_, err = NewRedis(&Config{})
	s.Error(err)
}

func (s *RedisRepositoryTestSuite) TestKeysWritten() {
	_, err := s.repo.Update(s.ctx, &UpdateInput{
		GameID: "game-1",
		Login:  "alice",
		Mutate: func(*View) ([]Change, error) {
			return []Change{seat("alice", 1)}, nil
		},
	})
	s.Require().NoError(err)

	s.True(s.mr.Exists("game:game-1"))
	value, err := s.mr.Get("login:alice")
	s.Require().NoError(err)
	s.Equal("game-1", value)

	members, err := s.mr.Members("games")
	s.Require().NoError(err)
	s.Equal([]string{"game-1"}, members)
}

func (s *RedisRepositoryTestSuite) TestOnlyTheWatchedLoginCanBeSeated() {
	_, err := s.repo.Update(s.ctx, &UpdateInput{
		GameID: "game-1",
		Login:  "alice",
		Mutate: func(*View) ([]Change, error) {
			return []Change{seat("mallory", 1)}, nil
		},
	})
	s.Error(err)
	s.False(s.mr.Exists("login:mallory"))
}

func (s *RedisRepositoryTestSuite) TestListSkipsDanglingIndexEntries() {
	s.mr.SAdd("games", "ghost")

	out, err := s.repo.ListGames(s.ctx, &ListGamesInput{})
	s.Require().NoError(err)
	s.Require().Len(out.States, 1)
	s.Equal("game-1", out.States[0].Game.ID)
}
