package game

import (
	"context"
	"errors"

	"github.com/KirkDiggler/horserace/internal/board"
	"github.com/KirkDiggler/horserace/internal/models"
	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
	"go.uber.org/zap"
)

// detectWinner returns the winning player of a started game, if any.
// The last seated player wins; otherwise the player with all horses on the finish cell.
func detectWinner(state *models.GameState) *models.Player {
	if state == nil || !state.Game.Status.IsStarted() {
		return nil
	}
	if len(state.Players) == 1 {
		return state.Players[0]
	}

	for _, p := range state.Players {
		finished := 0
		for _, h := range state.HorsesOf(p.ID) {
			if board.IsFinished(h.Position, p.Color) {
				finished++
			}
		}
		if finished == models.HorsesPerPlayer {
			return p
		}
	}
	return nil
}

// withLifecycle appends the freeze of the aggregate to changes that produce a winner.
// It works on a projection so the win is committed in the same transaction as its cause.
func withLifecycle(state *models.GameState, changes []gameRepo.Change) ([]gameRepo.Change, error) {
	if len(changes) == 0 {
		return changes, nil
	}

	projected := state.Clone()
	deleted, err := gameRepo.ApplyChanges(projected, changes)
	if err != nil || deleted {
		return changes, err
	}

	winner := detectWinner(projected)
	if winner == nil {
		return changes, nil
	}
	return append(changes, gameRepo.SetStatus{
		Status:      models.GameStatusFinished,
		WinnerColor: winner.Color,
		WinnerLogin: winner.Login,
	}), nil
}

// finishedBy returns the freeze written by a committed change list, nil if there is none
func finishedBy(changes []gameRepo.Change) *gameRepo.SetStatus {
	for _, change := range changes {
		if c, ok := change.(gameRepo.SetStatus); ok && c.Status.IsFinished() {
			return &c
		}
	}
	return nil
}

// announceWin publishes the result and schedules the teardown. It runs once per game:
// only the transaction that moved the game to finished reaches it.
func (s *service) announceWin(ctx context.Context, gameID string, win *gameRepo.SetStatus) {
	s.logger.Info("game won",
		zap.String("game_id", gameID),
		zap.String("winner_color", string(win.WinnerColor)),
		zap.String("winner_login", win.WinnerLogin),
	)

	s.broadcaster.Publish(ctx, &models.Event{
		Type:        models.EventGameWon,
		GameID:      gameID,
		WinnerColor: win.WinnerColor,
		WinnerLogin: win.WinnerLogin,
		OccurredAt:  s.clock.Now(),
	})

	s.clock.AfterFunc(s.teardownDelay, func() {
		s.teardown(context.Background(), gameID)
	})
}

// teardown deletes a finished game and all of its rows
func (s *service) teardown(ctx context.Context, gameID string) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	out, err := s.repo.Update(ctx, &gameRepo.UpdateInput{
		GameID: gameID,
		Now:    s.clock.Now(),
		Mutate: func(view *gameRepo.View) ([]gameRepo.Change, error) {
			if !view.State.Game.Status.IsFinished() {
				return nil, nil
			}
			return []gameRepo.Change{gameRepo.DeleteGame{}}, nil
		},
	})
	if err != nil {
		if errors.Is(err, gameRepo.ErrGameNotFound) {
			// every player left before the grace period ended
			return
		}
		s.logger.Error("failed to tear down game", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	if len(out.Changes) == 0 {
		return
	}

	s.logger.Info("game torn down", zap.String("game_id", gameID))
	s.broadcaster.Publish(ctx, &models.Event{
		Type:       models.EventGameTornDown,
		GameID:     gameID,
		OccurredAt: s.clock.Now(),
	})
}
