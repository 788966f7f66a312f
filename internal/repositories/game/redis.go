package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	gameKeyPrefix  = "game:"
	loginKeyPrefix = "login:"
	gamesIndexKey  = "games"
)

// Config holds configuration for the Redis game repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis.
// Every aggregate is a single JSON document so one WATCH covers all of its rows.
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed game repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

func gameKey(gameID string) string {
	return fmt.Sprintf("%s%s", gameKeyPrefix, gameID)
}

func loginKey(login string) string {
	return fmt.Sprintf("%s%s", loginKeyPrefix, login)
}

// CreateGame persists a new game to Redis
func (r *redisRepository) CreateGame(ctx context.Context, input *CreateGameInput) error {
	if input == nil || input.Game == nil || input.Game.ID == "" {
		return errors.New("input and game cannot be nil")
	}

	stateJSON, err := json.Marshal(&models.GameState{
		Game:    input.Game,
		Players: []*models.Player{},
		Horses:  []*models.Horse{},
		Dice:    []*models.DiceRoll{},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	created, err := r.client.SetNX(ctx, gameKey(input.Game.ID), stateJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: game %s already exists", ErrConflict, input.Game.ID)
	}

	if err := r.client.SAdd(ctx, gamesIndexKey, input.Game.ID).Err(); err != nil {
		return fmt.Errorf("failed to index game: %w", err)
	}

	return nil
}

// GetState retrieves a game aggregate by ID from Redis
func (r *redisRepository) GetState(ctx context.Context, input *GetStateInput) (*models.GameState, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	return r.load(ctx, r.client, input.GameID)
}

func (r *redisRepository) load(ctx context.Context, c redis.Cmdable, gameID string) (*models.GameState, error) {
	stateJSON, err := c.Get(ctx, gameKey(gameID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return decodeState(stateJSON)
}

func decodeState(stateJSON string) (*models.GameState, error) {
	var state models.GameState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}
	if state.Game == nil {
		return nil, errors.New("stored game has no root")
	}
	state.SortPlayers()
	return &state, nil
}

// Update runs a WATCH/MULTI/EXEC transaction over the game document and the actor's login key
func (r *redisRepository) Update(ctx context.Context, input *UpdateInput) (*UpdateOutput, error) {
	if input == nil || input.GameID == "" || input.Mutate == nil {
		return nil, errors.New("input, game ID and mutate cannot be empty")
	}

	keys := []string{gameKey(input.GameID)}
	if input.Login != "" {
		keys = append(keys, loginKey(input.Login))
	}

	var output *UpdateOutput
	txf := func(tx *redis.Tx) error {
		state, err := r.load(ctx, tx, input.GameID)
		if err != nil {
			return err
		}

		view := &View{State: state.Clone()}
		if input.Login != "" {
			seated, err := tx.Get(ctx, loginKey(input.Login)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("failed to get login seat: %w", err)
			}
			view.SeatedGameID = seated
		}

		changes, err := input.Mutate(view)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			output = &UpdateOutput{State: state}
			return nil
		}

		next := state.Clone()
		deleted, err := ApplyChanges(next, changes)
		if err != nil {
			return err
		}
		if !input.Now.IsZero() {
			next.Game.UpdatedAt = input.Now
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return r.queueWrites(ctx, pipe, input, state, next, changes, deleted)
		})
		if err != nil {
			return err
		}

		output = &UpdateOutput{Changes: changes}
		if !deleted {
			output.State = next
		}
		return nil
	}

	if err := r.client.Watch(ctx, txf, keys...); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("%w: game %s changed during update", ErrConflict, input.GameID)
		}
		return nil, err
	}

	return output, nil
}

func (r *redisRepository) queueWrites(ctx context.Context, pipe redis.Pipeliner, input *UpdateInput, before, after *models.GameState, changes []Change, deleted bool) error {
	if deleted {
		pipe.Del(ctx, gameKey(input.GameID))
		pipe.SRem(ctx, gamesIndexKey, input.GameID)
		for _, p := range before.Players {
			pipe.Del(ctx, loginKey(p.Login))
		}
		return nil
	}

	for _, change := range changes {
		switch c := change.(type) {
		case InsertPlayer:
			// only the watched login key may be written
			if c.Player.Login != input.Login {
				return fmt.Errorf("cannot seat %s in an update for %s", c.Player.Login, input.Login)
			}
			pipe.Set(ctx, loginKey(c.Player.Login), input.GameID, 0)
		case RemovePlayer:
			if p := before.PlayerByID(c.PlayerID); p != nil {
				pipe.Del(ctx, loginKey(p.Login))
			}
		}
	}

	stateJSON, err := json.Marshal(after)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}
	pipe.Set(ctx, gameKey(input.GameID), stateJSON, 0)
	return nil
}

// ListGames retrieves all indexed games from Redis, oldest first
func (r *redisRepository) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	gameIDs, err := r.client.SMembers(ctx, gamesIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game IDs: %w", err)
	}

	// If there are no games, return an empty slice
	if len(gameIDs) == 0 {
		return &ListGamesOutput{
			States: []*models.GameState{},
		}, nil
	}

	// Get all games using a pipeline
	pipe := r.client.Pipeline()
	gameCommands := make(map[string]*redis.StringCmd, len(gameIDs))
	for _, gameID := range gameIDs {
		gameCommands[gameID] = pipe.Get(ctx, gameKey(gameID))
	}

	// redis.Nil from a single GET is reported by Exec too, checked per command below
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	states := make([]*models.GameState, 0, len(gameIDs))
	for gameID, cmd := range gameCommands {
		stateJSON, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Game was deleted between getting the IDs and fetching the game
				continue
			}
			return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
		}

		state, err := decodeState(stateJSON)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", gameID, err)
		}
		if input != nil && input.Status != "" && state.Game.Status != input.Status {
			continue
		}
		states = append(states, state)
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].Game.CreatedAt.Before(states[j].Game.CreatedAt)
	})

	return &ListGamesOutput{
		States: states,
	}, nil
}

// GetGameByLogin retrieves the game a login is seated in from Redis
func (r *redisRepository) GetGameByLogin(ctx context.Context, input *GetGameByLoginInput) (*GetGameByLoginOutput, error) {
	if input == nil || input.Login == "" {
		return nil, errors.New("input and login cannot be empty")
	}

	gameID, err := r.client.Get(ctx, loginKey(input.Login)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get game ID for login: %w", err)
	}

	return &GetGameByLoginOutput{
		GameID: gameID,
	}, nil
}
