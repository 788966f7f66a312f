package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/KirkDiggler/horserace/internal/common/clock"
	"github.com/KirkDiggler/horserace/internal/models"
	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
	"go.uber.org/zap"
)

// service implements the Service interface
type service struct {
	repo          gameRepo.Repository
	engine        *turnEngine
	clock         clock.Clock
	broadcaster   Broadcaster
	logger        *zap.Logger
	teardownDelay time.Duration
	locks         *gameLocks
	newID         func() string
}

// step computes the changes of one transaction from the view read inside it
type step func(view *gameRepo.View, now time.Time) ([]gameRepo.Change, error)

// New creates a new game service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.GameRepo == nil {
		return nil, ErrNilGameRepo
	}
	if cfg.DiceRoller == nil {
		return nil, ErrNilDiceRoller
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}
	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	broadcaster := cfg.Broadcaster
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	teardownDelay := cfg.TeardownDelay
	if teardownDelay <= 0 {
		teardownDelay = DefaultTeardownDelay
	}

	return &service{
		repo: cfg.GameRepo,
		engine: &turnEngine{
			roller: cfg.DiceRoller,
			ids:    cfg.UUIDGenerator,
		},
		clock:         cfg.Clock,
		broadcaster:   broadcaster,
		logger:        logger.Named("game"),
		teardownDelay: teardownDelay,
		locks:         newGameLocks(),
		newID:         cfg.UUIDGenerator.NewUUID,
	}, nil
}

// mapError converts store errors into the service's error kinds
func mapError(err error) error {
	var gameErr GameError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &gameErr):
		return err
	case errors.Is(err, gameRepo.ErrGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, gameRepo.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, gameRepo.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return fmt.Errorf("game store: %w", err)
}

// commit runs one transaction against gameID. A win caused by the changes is frozen in the
// same transaction and announced after it commits.
func (s *service) commit(ctx context.Context, gameID, login string, strict bool, now time.Time, fn step) (*gameRepo.UpdateOutput, error) {
	out, err := s.repo.Update(ctx, &gameRepo.UpdateInput{
		GameID: gameID,
		Login:  login,
		Strict: strict,
		Now:    now,
		Mutate: func(view *gameRepo.View) ([]gameRepo.Change, error) {
			changes, err := fn(view, now)
			if err != nil {
				return nil, err
			}
			return withLifecycle(view.State, changes)
		},
	})
	if err != nil {
		return nil, mapError(err)
	}

	if win := finishedBy(out.Changes); win != nil {
		s.announceWin(ctx, gameID, win)
	}
	return out, nil
}

// refresh applies an expired turn or seeds a missing dice in its own transaction, so the
// write is never attributed to whoever triggered the read. The caller holds the game lock.
func (s *service) refresh(ctx context.Context, gameID string) (*models.GameState, time.Time, error) {
	now := s.clock.Now()

	var expired *timeout
	out, err := s.commit(ctx, gameID, "", false, now, func(view *gameRepo.View, now time.Time) ([]gameRepo.Change, error) {
		changes, t := s.engine.refresh(view.State, now)
		expired = t
		return changes, nil
	})
	if err != nil {
		return nil, now, err
	}

	if expired != nil {
		s.logger.Info("turn advanced",
			zap.String("game_id", gameID),
			zap.String("login", expired.From.Login),
			zap.String("next_login", expired.To.Login),
			zap.String("trigger", "timeout"),
		)
		s.publishState(ctx, out.State, now)
	}
	return out.State, now, nil
}

// act serialises an action on gameID behind a refresh of the game
func (s *service) act(ctx context.Context, gameID, login string, strict bool, fn step) (*gameRepo.UpdateOutput, time.Time, error) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	if _, _, err := s.refresh(ctx, gameID); err != nil {
		return nil, time.Time{}, err
	}

	now := s.clock.Now()
	out, err := s.commit(ctx, gameID, login, strict, now, fn)
	if err != nil {
		return nil, now, err
	}

	s.publishState(ctx, out.State, now)
	return out, now, nil
}

func (s *service) publishState(ctx context.Context, state *models.GameState, now time.Time) {
	if state == nil {
		return
	}
	s.broadcaster.Publish(ctx, &models.Event{
		Type:       models.EventStateUpdated,
		GameID:     state.Game.ID,
		State:      models.NewSnapshot(state, now),
		OccurredAt: now,
	})
}

func validateActor(gameID, login string) error {
	if strings.TrimSpace(gameID) == "" {
		return ErrInvalidGameID
	}
	if strings.TrimSpace(login) == "" {
		return ErrInvalidLogin
	}
	return nil
}

// CreateGame opens a room waiting for players
func (s *service) CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error) {
	if input == nil {
		return nil, ErrInvalidCapacity
	}
	if !slices.Contains(ValidCapacities, input.PlayerCapacity) {
		return nil, ErrInvalidCapacity
	}
	if !slices.Contains(ValidStepTimes, input.StepTimeSeconds) {
		return nil, ErrInvalidStepTime
	}

	now := s.clock.Now()
	game := &models.Game{
		ID:              s.newID(),
		StepTimeSeconds: input.StepTimeSeconds,
		PlayerCapacity:  input.PlayerCapacity,
		Status:          models.GameStatusWaiting,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateGame(ctx, &gameRepo.CreateGameInput{Game: game}); err != nil {
		return nil, mapError(err)
	}

	s.logger.Info("game created",
		zap.String("game_id", game.ID),
		zap.Int("player_capacity", game.PlayerCapacity),
		zap.Int("step_time", game.StepTimeSeconds),
	)

	return &CreateGameOutput{
		GameID:          game.ID,
		PlayerCapacity:  game.PlayerCapacity,
		StepTimeSeconds: game.StepTimeSeconds,
	}, nil
}

// ListGames returns every room with its seats
func (s *service) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	repoInput := &gameRepo.ListGamesInput{}
	if input != nil {
		repoInput.Status = input.Status
	}

	out, err := s.repo.ListGames(ctx, repoInput)
	if err != nil {
		return nil, mapError(err)
	}

	games := make([]*GameSummary, 0, len(out.States))
	for _, state := range out.States {
		summary := &GameSummary{
			GameID:          state.Game.ID,
			Status:          state.Game.Status,
			PlayerCapacity:  state.Game.PlayerCapacity,
			StepTimeSeconds: state.Game.StepTimeSeconds,
			CurrentPlayers:  len(state.Players),
			Logins:          make([]string, 0, len(state.Players)),
		}
		for _, p := range state.Players {
			summary.Logins = append(summary.Logins, p.Login)
		}
		games = append(games, summary)
	}

	return &ListGamesOutput{Games: games}, nil
}

// JoinGame seats a login, using the store's strictest isolation for the admission
func (s *service) JoinGame(ctx context.Context, input *JoinGameInput) (*JoinGameOutput, error) {
	if input == nil {
		return nil, ErrInvalidGameID
	}
	if err := validateActor(input.GameID, input.Login); err != nil {
		return nil, err
	}

	var seated *models.Player
	out, _, err := s.act(ctx, input.GameID, input.Login, true, func(view *gameRepo.View, now time.Time) ([]gameRepo.Change, error) {
		changes, player, err := s.engine.join(view, input.Login, now)
		seated = player
		return changes, err
	})
	if err != nil {
		return nil, err
	}

	started := out.State.Game.Status.IsStarted()
	s.logger.Info("player joined",
		zap.String("game_id", input.GameID),
		zap.String("login", input.Login),
		zap.Int("seat", seated.SeatNumber),
		zap.Bool("game_started", started),
	)

	return &JoinGameOutput{
		PlayerID:       seated.ID,
		Color:          seated.Color,
		SeatNumber:     seated.SeatNumber,
		PlayerCapacity: out.State.Game.PlayerCapacity,
		CurrentPlayers: len(out.State.Players),
		GameStarted:    started,
	}, nil
}

// GetState returns the snapshot of a game after applying any pending timeout
func (s *service) GetState(ctx context.Context, input *GetStateInput) (*GetStateOutput, error) {
	if input == nil || strings.TrimSpace(input.GameID) == "" {
		return nil, ErrInvalidGameID
	}

	unlock := s.locks.lock(input.GameID)
	defer unlock()

	state, now, err := s.refresh(ctx, input.GameID)
	if err != nil {
		return nil, err
	}

	return &GetStateOutput{
		State: models.NewSnapshot(state, now),
	}, nil
}

// Roll reveals the turn holder's dice
func (s *service) Roll(ctx context.Context, input *RollInput) (*RollOutput, error) {
	if input == nil {
		return nil, ErrInvalidGameID
	}
	if err := validateActor(input.GameID, input.Login); err != nil {
		return nil, err
	}

	var roll *models.DiceRoll
	_, now, err := s.act(ctx, input.GameID, input.Login, false, func(view *gameRepo.View, now time.Time) ([]gameRepo.Change, error) {
		changes, r, err := s.engine.roll(view.State, input.Login, now)
		roll = r
		return changes, err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("dice rolled",
		zap.String("game_id", input.GameID),
		zap.String("login", input.Login),
		zap.Int("value", roll.Value),
	)

	return &RollOutput{
		DiceValue:        roll.Value,
		RemainingSeconds: max(roll.RemainingSeconds(now), 0),
	}, nil
}

// Move moves a horse by the turn holder's dice
func (s *service) Move(ctx context.Context, input *MoveInput) (*MoveOutput, error) {
	if input == nil {
		return nil, ErrInvalidGameID
	}
	if err := validateActor(input.GameID, input.Login); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.HorseID) == "" {
		return nil, ErrHorseNotFound
	}

	var outcome *moveOutcome
	out, _, err := s.act(ctx, input.GameID, input.Login, false, func(view *gameRepo.View, now time.Time) ([]gameRepo.Change, error) {
		changes, o, err := s.engine.move(view.State, input.Login, input.HorseID, now)
		outcome = o
		return changes, err
	})
	if err != nil {
		return nil, err
	}

	output := &MoveOutput{
		From:            outcome.from,
		To:              outcome.to,
		DiceValue:       outcome.diceValue,
		CapturedHorseID: outcome.capturedHorse,
		Finished:        outcome.finished,
		CanRollAgain:    outcome.canRollAgain,
		NextTurnLogin:   outcome.nextTurnLogin,
	}
	if out.State.Game.Status.IsFinished() {
		output.WinnerColor = out.State.Game.WinnerColor
		output.CanRollAgain = false
		output.NextTurnLogin = ""
	}

	s.logger.Info("horse moved",
		zap.String("game_id", input.GameID),
		zap.String("login", input.Login),
		zap.Int("from", output.From),
		zap.Int("to", output.To),
		zap.Int("dice", output.DiceValue),
		zap.String("captured", output.CapturedHorseID),
	)

	return output, nil
}

// Pass gives the turn to the next seat
func (s *service) Pass(ctx context.Context, input *PassInput) (*PassOutput, error) {
	if input == nil {
		return nil, ErrInvalidGameID
	}
	if err := validateActor(input.GameID, input.Login); err != nil {
		return nil, err
	}

	var next *models.Player
	_, _, err := s.act(ctx, input.GameID, input.Login, false, func(view *gameRepo.View, now time.Time) ([]gameRepo.Change, error) {
		changes, n, err := s.engine.pass(view.State, input.Login, now)
		next = n
		return changes, err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("turn passed",
		zap.String("game_id", input.GameID),
		zap.String("login", input.Login),
		zap.String("next_login", next.Login),
	)

	return &PassOutput{NextTurnLogin: next.Login}, nil
}

// LeaveGame frees a seat, deleting the game with its last player
func (s *service) LeaveGame(ctx context.Context, input *LeaveGameInput) (*LeaveGameOutput, error) {
	if input == nil {
		return nil, ErrInvalidGameID
	}
	if err := validateActor(input.GameID, input.Login); err != nil {
		return nil, err
	}

	var remaining int
	out, now, err := s.act(ctx, input.GameID, input.Login, false, func(view *gameRepo.View, now time.Time) ([]gameRepo.Change, error) {
		changes, n, err := s.engine.leave(view.State, input.Login, now)
		remaining = n
		return changes, err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player left",
		zap.String("game_id", input.GameID),
		zap.String("login", input.Login),
		zap.Int("remaining", remaining),
	)

	s.broadcaster.Publish(ctx, &models.Event{
		Type:       models.EventPlayerLeft,
		GameID:     input.GameID,
		Login:      input.Login,
		OccurredAt: now,
	})

	return &LeaveGameOutput{
		RemainingPlayerCount: remaining,
		GameDeleted:          out.State == nil,
	}, nil
}

// GetGameByLogin finds the game a login is seated in
func (s *service) GetGameByLogin(ctx context.Context, input *GetGameByLoginInput) (*GetGameByLoginOutput, error) {
	if input == nil || strings.TrimSpace(input.Login) == "" {
		return nil, ErrInvalidLogin
	}

	out, err := s.repo.GetGameByLogin(ctx, &gameRepo.GetGameByLoginInput{Login: input.Login})
	if err != nil {
		return nil, mapError(err)
	}

	return &GetGameByLoginOutput{GameID: out.GameID}, nil
}
