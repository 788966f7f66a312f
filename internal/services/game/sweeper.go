package game

import (
	"context"
	"errors"
	"time"

	"github.com/KirkDiggler/horserace/internal/common/clock"
	"github.com/KirkDiggler/horserace/internal/models"
	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
	"go.uber.org/zap"
)

// DefaultSweepInterval is how often RunSweeper refreshes idle games
const DefaultSweepInterval = 5 * time.Second

// Sweep applies pending timeouts to every started game. Nobody has to read a game for
// its turn to move on while the sweeper runs. It returns the number of games refreshed.
func (s *service) Sweep(ctx context.Context) (int, error) {
	out, err := s.repo.ListGames(ctx, &gameRepo.ListGamesInput{Status: models.GameStatusStarted})
	if err != nil {
		return 0, mapError(err)
	}

	refreshed := 0
	for _, state := range out.States {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}

		if err := s.sweepGame(ctx, state.Game.ID); err != nil {
			if errors.Is(err, ErrGameNotFound) {
				continue
			}
			s.logger.Warn("failed to sweep game", zap.String("game_id", state.Game.ID), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *service) sweepGame(ctx context.Context, gameID string) error {
	unlock := s.locks.lock(gameID)
	defer unlock()

	_, _, err := s.refresh(ctx, gameID)
	return err
}

// RunSweeper sweeps every interval of the service clock until ctx is done
func (s *service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	tick := make(chan struct{}, 1)
	schedule := func() clock.Timer {
		return s.clock.AfterFunc(interval, func() {
			select {
			case tick <- struct{}{}:
			default:
			}
		})
	}

	timer := schedule()
	s.logger.Info("sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper stopped")
			return
		case <-tick:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", zap.Error(err))
			}
			timer = schedule()
		}
	}
}
