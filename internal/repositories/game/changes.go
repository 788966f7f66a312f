package game

import (
	"fmt"

	"github.com/KirkDiggler/horserace/internal/models"
)

// Change is one write to a game aggregate. Changes are applied in order and all or none
// of them become visible.
type Change interface {
	isChange()
}

// InsertPlayer seats a player together with their horses
type InsertPlayer struct {
	Player *models.Player
	Horses []*models.Horse
}

// RemovePlayer deletes a player with their horses and dice
type RemovePlayer struct {
	PlayerID string
}

// MoveHorse sets the position of a horse
type MoveHorse struct {
	HorseID  string
	Position int
}

// InsertDice adds a pending dice for a player
type InsertDice struct {
	Dice *models.DiceRoll
}

// RevealDice marks a pending dice as rolled
type RevealDice struct {
	DiceID string
}

// ConsumeDice marks a dice as used by a move
type ConsumeDice struct {
	DiceID string
}

// ClearDice deletes every dice row of a player
type ClearDice struct {
	PlayerID string
}

// SetTurn hands the turn to Next, but only if the holder is still Expected.
// An empty ID means nobody holds the turn.
type SetTurn struct {
	Expected string
	Next     string
}

// SetStatus moves the game to a new status, recording the winner for finished games
type SetStatus struct {
	Status      models.GameStatus
	WinnerColor models.Color
	WinnerLogin string
}

// DeleteGame removes the game and all of its rows
type DeleteGame struct{}

func (InsertPlayer) isChange() {}
func (RemovePlayer) isChange() {}
func (MoveHorse) isChange()    {}
func (InsertDice) isChange()   {}
func (RevealDice) isChange()   {}
func (ConsumeDice) isChange()  {}
func (ClearDice) isChange()    {}
func (SetTurn) isChange()      {}
func (SetStatus) isChange()    {}
func (DeleteGame) isChange()   {}

// ApplyChanges applies changes to state in place. It reports whether the game was deleted.
// Every violated invariant is an ErrConflict: the changes were computed from a view that no
// longer matches the aggregate.
func ApplyChanges(state *models.GameState, changes []Change) (bool, error) {
	for _, change := range changes {
		switch c := change.(type) {
		case InsertPlayer:
			if err := insertPlayer(state, c); err != nil {
				return false, err
			}
		case RemovePlayer:
			if state.PlayerByID(c.PlayerID) == nil {
				return false, fmt.Errorf("%w: player %s is not seated", ErrConflict, c.PlayerID)
			}
			state.Players = filter(state.Players, func(p *models.Player) bool { return p.ID != c.PlayerID })
			state.Horses = filter(state.Horses, func(h *models.Horse) bool { return h.PlayerID != c.PlayerID })
			state.Dice = filter(state.Dice, func(d *models.DiceRoll) bool { return d.PlayerID != c.PlayerID })
		case MoveHorse:
			horse := state.HorseByID(c.HorseID)
			if horse == nil {
				return false, fmt.Errorf("%w: horse %s does not exist", ErrConflict, c.HorseID)
			}
			horse.Position = c.Position
		case InsertDice:
			if state.PlayerByID(c.Dice.PlayerID) == nil {
				return false, fmt.Errorf("%w: dice for unseated player %s", ErrConflict, c.Dice.PlayerID)
			}
			if state.PendingDice(c.Dice.PlayerID) != nil {
				return false, fmt.Errorf("%w: player %s already has a pending dice", ErrConflict, c.Dice.PlayerID)
			}
			roll := *c.Dice
			state.Dice = append(state.Dice, &roll)
		case RevealDice:
			roll := diceByID(state, c.DiceID)
			if roll == nil || roll.Consumed {
				return false, fmt.Errorf("%w: dice %s is not pending", ErrConflict, c.DiceID)
			}
			roll.Rolled = true
		case ConsumeDice:
			roll := diceByID(state, c.DiceID)
			if roll == nil || roll.Consumed {
				return false, fmt.Errorf("%w: dice %s is not pending", ErrConflict, c.DiceID)
			}
			roll.Consumed = true
		case ClearDice:
			state.Dice = filter(state.Dice, func(d *models.DiceRoll) bool { return d.PlayerID != c.PlayerID })
		case SetTurn:
			if state.Game.CurrentTurnPlayerID != c.Expected {
				return false, fmt.Errorf("%w: turn moved on from %q", ErrConflict, c.Expected)
			}
			state.Game.CurrentTurnPlayerID = c.Next
		case SetStatus:
			state.Game.Status = c.Status
			state.Game.WinnerColor = c.WinnerColor
			state.Game.WinnerLogin = c.WinnerLogin
		case DeleteGame:
			return true, nil
		default:
			return false, fmt.Errorf("unknown change %T", change)
		}
	}
	return false, nil
}

func insertPlayer(state *models.GameState, c InsertPlayer) error {
	p := c.Player
	for _, seated := range state.Players {
		if seated.SeatNumber == p.SeatNumber || seated.Color == p.Color || seated.Login == p.Login {
			return fmt.Errorf("%w: seat %d is taken", ErrConflict, p.SeatNumber)
		}
	}
	if len(state.Players) >= state.Game.PlayerCapacity {
		return fmt.Errorf("%w: game is full", ErrConflict)
	}

	player := *p
	player.GameID = state.Game.ID
	state.Players = append(state.Players, &player)
	for _, h := range c.Horses {
		horse := *h
		state.Horses = append(state.Horses, &horse)
	}
	state.SortPlayers()
	return nil
}

func diceByID(state *models.GameState, diceID string) *models.DiceRoll {
	for _, d := range state.Dice {
		if d.ID == diceID {
			return d
		}
	}
	return nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
