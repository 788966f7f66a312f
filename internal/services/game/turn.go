package game

import (
	"fmt"
	"time"

	"github.com/KirkDiggler/horserace/internal/board"
	"github.com/KirkDiggler/horserace/internal/common/uuid"
	"github.com/KirkDiggler/horserace/internal/dice"
	"github.com/KirkDiggler/horserace/internal/models"
	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
)

// turnEngine decides every turn transition. It never writes: it reads a snapshot of the
// aggregate and returns the changes that the store applies in one transaction.
type turnEngine struct {
	roller dice.Roller
	ids    uuid.UUID
}

// timeout describes a turn taken away from a holder that let the dice expire
type timeout struct {
	From *models.Player
	To   *models.Player
}

type moveOutcome struct {
	from          int
	to            int
	diceValue     int
	capturedHorse string
	finished      bool
	canRollAgain  bool
	nextTurnLogin string
}

func (e *turnEngine) newDice(player *models.Player, game *models.Game, now time.Time) *models.DiceRoll {
	return &models.DiceRoll{
		ID:        e.ids.NewUUID(),
		PlayerID:  player.ID,
		Value:     e.roller.Roll(dice.Sides),
		ExpiresAt: now.Add(game.StepTime()),
		CreatedAt: now,
	}
}

// handOff gives the turn from the current holder to next with a fresh dice.
// Any stale dice of next are dropped first.
func (e *turnEngine) handOff(state *models.GameState, next *models.Player, now time.Time) []gameRepo.Change {
	return []gameRepo.Change{
		gameRepo.SetTurn{Expected: state.Game.CurrentTurnPlayerID, Next: next.ID},
		gameRepo.ClearDice{PlayerID: next.ID},
		gameRepo.InsertDice{Dice: e.newDice(next, state.Game, now)},
	}
}

// refresh brings a started game up to date at now: it seeds the holder's dice when
// none is pending and takes the turn away from a holder whose dice expired.
func (e *turnEngine) refresh(state *models.GameState, now time.Time) ([]gameRepo.Change, *timeout) {
	if !state.Game.Status.IsStarted() || len(state.Players) == 0 {
		return nil, nil
	}

	holder := state.CurrentPlayer()
	if holder == nil {
		// the holder is gone without a hand-off, restart from the first seat
		return e.handOff(state, state.Players[0], now), nil
	}

	pending := state.PendingDice(holder.ID)
	if pending == nil {
		return []gameRepo.Change{
			gameRepo.InsertDice{Dice: e.newDice(holder, state.Game, now)},
		}, nil
	}
	if !pending.IsExpired(now) {
		return nil, nil
	}

	next := state.NextPlayerAfter(holder.SeatNumber)
	changes := []gameRepo.Change{gameRepo.ClearDice{PlayerID: holder.ID}}
	changes = append(changes, e.handOff(state, next, now)...)
	return changes, &timeout{From: holder, To: next}
}

// actor resolves the caller of a turn action and checks it may act now
func actor(state *models.GameState, login string, now time.Time) (*models.Player, *models.DiceRoll, error) {
	switch {
	case state.Game.Status.IsFinished():
		return nil, nil, ErrGameFinished
	case state.Game.Status.IsWaiting():
		return nil, nil, ErrGameNotStarted
	}

	player := state.PlayerByLogin(login)
	if player == nil {
		return nil, nil, ErrPlayerNotFound
	}
	if state.Game.CurrentTurnPlayerID != player.ID {
		return nil, nil, ErrNotYourTurn
	}

	pending := state.PendingDice(player.ID)
	if pending != nil && pending.IsExpired(now) {
		return nil, nil, ErrTurnExpired
	}
	return player, pending, nil
}

func (e *turnEngine) roll(state *models.GameState, login string, now time.Time) ([]gameRepo.Change, *models.DiceRoll, error) {
	player, pending, err := actor(state, login, now)
	if err != nil {
		return nil, nil, err
	}

	if pending == nil {
		roll := e.newDice(player, state.Game, now)
		roll.Rolled = true
		return []gameRepo.Change{gameRepo.InsertDice{Dice: roll}}, roll, nil
	}
	if pending.Rolled {
		return nil, nil, ErrMustMoveFirst
	}

	revealed := *pending
	revealed.Rolled = true
	return []gameRepo.Change{gameRepo.RevealDice{DiceID: pending.ID}}, &revealed, nil
}

func (e *turnEngine) move(state *models.GameState, login, horseID string, now time.Time) ([]gameRepo.Change, *moveOutcome, error) {
	horse := state.HorseByID(horseID)
	if horse == nil {
		return nil, nil, ErrHorseNotFound
	}

	player, pending, err := actor(state, login, now)
	if err != nil {
		return nil, nil, err
	}
	if horse.PlayerID != player.ID {
		return nil, nil, ErrNotYourHorse
	}
	if pending == nil {
		return nil, nil, ErrRollFirst
	}

	to, err := board.ValidateMove(horse.Position, player.Color, pending.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}

	pieces := make([]board.Piece, 0, len(state.Horses))
	for _, h := range state.Horses {
		if h.ID == horse.ID {
			continue
		}
		owner := state.PlayerByID(h.PlayerID)
		if owner == nil {
			continue
		}
		pieces = append(pieces, board.Piece{HorseID: h.ID, Color: owner.Color, Position: h.Position})
	}

	outcome := &moveOutcome{
		from:      horse.Position,
		to:        to,
		diceValue: pending.Value,
		finished:  board.IsFinished(to, player.Color),
	}

	var changes []gameRepo.Change
	if captured := board.CheckCapture(to, player.Color, pieces); captured != nil {
		outcome.capturedHorse = captured.HorseID
		changes = append(changes, gameRepo.MoveHorse{HorseID: captured.HorseID, Position: board.YardPosition})
	}
	changes = append(changes,
		gameRepo.MoveHorse{HorseID: horse.ID, Position: to},
		gameRepo.ConsumeDice{DiceID: pending.ID},
	)

	if pending.Value == board.ExitValue {
		outcome.canRollAgain = true
		outcome.nextTurnLogin = player.Login
		changes = append(changes, gameRepo.InsertDice{Dice: e.newDice(player, state.Game, now)})
		return changes, outcome, nil
	}

	next := state.NextPlayerAfter(player.SeatNumber)
	outcome.nextTurnLogin = next.Login
	changes = append(changes, e.handOff(state, next, now)...)
	return changes, outcome, nil
}

func (e *turnEngine) pass(state *models.GameState, login string, now time.Time) ([]gameRepo.Change, *models.Player, error) {
	player, _, err := actor(state, login, now)
	if err != nil {
		return nil, nil, err
	}

	next := state.NextPlayerAfter(player.SeatNumber)
	changes := []gameRepo.Change{gameRepo.ClearDice{PlayerID: player.ID}}
	changes = append(changes, e.handOff(state, next, now)...)
	return changes, next, nil
}

// join seats login on the lowest free seat. Filling the last seat starts the game with
// the first seat holding the turn.
func (e *turnEngine) join(view *gameRepo.View, login string, now time.Time) ([]gameRepo.Change, *models.Player, error) {
	state := view.State
	game := state.Game

	if state.PlayerByLogin(login) != nil {
		return nil, nil, ErrAlreadyJoined
	}
	// a full room rejects with RoomFull whatever its status
	if len(state.Players) >= game.PlayerCapacity {
		return nil, nil, ErrRoomFull
	}
	if !game.Status.IsWaiting() {
		return nil, nil, ErrGameStarted
	}
	if view.SeatedGameID != "" && view.SeatedGameID != game.ID {
		return nil, nil, ErrSeatedElsewhere
	}

	occupied := state.OccupiedSeats()
	seatNumber := 1
	for seatNumber <= game.PlayerCapacity && occupied[seatNumber] {
		seatNumber++
	}
	color, ok := models.ColorForSeat(seatNumber)
	if !ok {
		return nil, nil, ErrRoomFull
	}

	player := &models.Player{
		ID:         e.ids.NewUUID(),
		GameID:     game.ID,
		Login:      login,
		Color:      color,
		SeatNumber: seatNumber,
	}
	horses := make([]*models.Horse, 0, models.HorsesPerPlayer)
	for n := 1; n <= models.HorsesPerPlayer; n++ {
		horses = append(horses, &models.Horse{
			ID:       e.ids.NewUUID(),
			PlayerID: player.ID,
			Number:   n,
			Position: models.YardPosition,
		})
	}

	changes := []gameRepo.Change{gameRepo.InsertPlayer{Player: player, Horses: horses}}
	if len(state.Players)+1 < game.PlayerCapacity {
		return changes, player, nil
	}

	first := player
	for _, p := range state.Players {
		if p.SeatNumber < first.SeatNumber {
			first = p
		}
	}

	changes = append(changes, gameRepo.SetStatus{Status: models.GameStatusStarted})
	for _, p := range state.Players {
		changes = append(changes, gameRepo.ClearDice{PlayerID: p.ID})
	}
	changes = append(changes,
		gameRepo.SetTurn{Expected: game.CurrentTurnPlayerID, Next: first.ID},
		gameRepo.InsertDice{Dice: e.newDice(first, game, now)},
	)
	return changes, player, nil
}

// leave frees the seat of login. The turn moves on if the leaver held it and the game
// is deleted with its last player.
func (e *turnEngine) leave(state *models.GameState, login string, now time.Time) ([]gameRepo.Change, int, error) {
	player := state.PlayerByLogin(login)
	if player == nil {
		return nil, 0, ErrPlayerNotFound
	}

	remaining := len(state.Players) - 1
	if remaining == 0 {
		return []gameRepo.Change{gameRepo.DeleteGame{}}, 0, nil
	}

	var changes []gameRepo.Change
	if state.Game.CurrentTurnPlayerID == player.ID {
		if state.Game.Status.IsStarted() {
			changes = append(changes, e.handOff(state, state.NextPlayerAfter(player.SeatNumber), now)...)
		} else {
			// nobody plays a finished game, the turn just must not point at a removed seat
			changes = append(changes, gameRepo.SetTurn{Expected: player.ID, Next: ""})
		}
	}
	changes = append(changes, gameRepo.RemovePlayer{PlayerID: player.ID})
	return changes, remaining, nil
}
