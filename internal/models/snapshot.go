package models

import (
	"time"
)

// Snapshot is the read model of a game handed to clients and broadcasters
type Snapshot struct {
	GameID               string            `json:"game_id"`
	Status               GameStatus        `json:"status"`
	CurrentTurn          string            `json:"current_turn,omitempty"`
	RemainingTimeSeconds int               `json:"remaining_time"`
	StepTimeSeconds      int               `json:"step_time"`
	DiceValue            int               `json:"dice,omitempty"`
	WinnerColor          Color             `json:"winner,omitempty"`
	PlayerCapacity       int               `json:"player_capacity"`
	Players              []*PlayerSnapshot `json:"players"`
}

// PlayerSnapshot is one seat of a Snapshot
type PlayerSnapshot struct {
	PlayerID   string           `json:"player_id"`
	Login      string           `json:"login"`
	Color      Color            `json:"color"`
	SeatNumber int              `json:"player_number"`
	IsTurn     bool             `json:"is_turn"`
	Horses     []*HorseSnapshot `json:"horses"`
}

// HorseSnapshot is one horse of a PlayerSnapshot
type HorseSnapshot struct {
	HorseID  string `json:"horse_id"`
	Number   int    `json:"number"`
	Position int    `json:"cell_number"`
}

// NewSnapshot builds the read model of state as seen at now
func NewSnapshot(state *GameState, now time.Time) *Snapshot {
	game := state.Game
	snapshot := &Snapshot{
		GameID:               game.ID,
		Status:               game.Status,
		RemainingTimeSeconds: game.StepTimeSeconds,
		StepTimeSeconds:      game.StepTimeSeconds,
		WinnerColor:          game.WinnerColor,
		PlayerCapacity:       game.PlayerCapacity,
		Players:              make([]*PlayerSnapshot, 0, len(state.Players)),
	}

	current := state.CurrentPlayer()
	if current != nil {
		snapshot.CurrentTurn = current.Login
		if pending := state.PendingDice(current.ID); pending != nil {
			if pending.Rolled {
				snapshot.DiceValue = pending.Value
			}
			snapshot.RemainingTimeSeconds = max(pending.RemainingSeconds(now), 0)
		}
	}

	for _, p := range state.Players {
		ps := &PlayerSnapshot{
			PlayerID:   p.ID,
			Login:      p.Login,
			Color:      p.Color,
			SeatNumber: p.SeatNumber,
			IsTurn:     current != nil && current.ID == p.ID,
			Horses:     []*HorseSnapshot{},
		}
		for _, h := range state.HorsesOf(p.ID) {
			ps.Horses = append(ps.Horses, &HorseSnapshot{
				HorseID:  h.ID,
				Number:   h.Number,
				Position: h.Position,
			})
		}
		snapshot.Players = append(snapshot.Players, ps)
	}

	return snapshot
}
