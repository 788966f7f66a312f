package models

import (
	"sort"
)

// GameState is the game aggregate: the game row and every child row hanging off it
type GameState struct {
	// Game is the aggregate root
	Game *Game

	// Players contains the seated players ordered by seat number
	Players []*Player

	// Horses contains the horses of every seated player
	Horses []*Horse

	// Dice contains the dice rows of every seated player
	Dice []*DiceRoll
}

// SortPlayers orders the players by seat number
func (s *GameState) SortPlayers() {
	sort.Slice(s.Players, func(i, j int) bool {
		return s.Players[i].SeatNumber < s.Players[j].SeatNumber
	})
}

// PlayerByID returns the seated player with the given ID
func (s *GameState) PlayerByID(playerID string) *Player {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// PlayerByLogin returns the seated player with the given login
func (s *GameState) PlayerByLogin(login string) *Player {
	for _, p := range s.Players {
		if p.Login == login {
			return p
		}
	}
	return nil
}

// PlayerBySeat returns the player sitting on a seat
func (s *GameState) PlayerBySeat(seatNumber int) *Player {
	for _, p := range s.Players {
		if p.SeatNumber == seatNumber {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the turn holder, nil while nobody holds the turn
func (s *GameState) CurrentPlayer() *Player {
	if s.Game == nil || s.Game.CurrentTurnPlayerID == "" {
		return nil
	}
	return s.PlayerByID(s.Game.CurrentTurnPlayerID)
}

// NextPlayerAfter returns the first player seated after seatNumber, wrapping around.
// The player on seatNumber itself is only returned when nobody else is seated.
func (s *GameState) NextPlayerAfter(seatNumber int) *Player {
	if len(s.Players) == 0 {
		return nil
	}
	var first *Player
	var next *Player
	for _, p := range s.Players {
		if first == nil || p.SeatNumber < first.SeatNumber {
			first = p
		}
		if p.SeatNumber > seatNumber && (next == nil || p.SeatNumber < next.SeatNumber) {
			next = p
		}
	}
	if next != nil {
		return next
	}
	return first
}

// HorseByID returns a horse of the game
func (s *GameState) HorseByID(horseID string) *Horse {
	for _, h := range s.Horses {
		if h.ID == horseID {
			return h
		}
	}
	return nil
}

// HorsesOf returns the horses of a player ordered by number
func (s *GameState) HorsesOf(playerID string) []*Horse {
	var horses []*Horse
	for _, h := range s.Horses {
		if h.PlayerID == playerID {
			horses = append(horses, h)
		}
	}
	sort.Slice(horses, func(i, j int) bool {
		return horses[i].Number < horses[j].Number
	})
	return horses
}

// PendingDice returns the unconsumed dice of a player
func (s *GameState) PendingDice(playerID string) *DiceRoll {
	for _, d := range s.Dice {
		if d.PlayerID == playerID && !d.Consumed {
			return d
		}
	}
	return nil
}

// OccupiedSeats returns the set of taken seat numbers
func (s *GameState) OccupiedSeats() map[int]bool {
	seats := make(map[int]bool, len(s.Players))
	for _, p := range s.Players {
		seats[p.SeatNumber] = true
	}
	return seats
}

// Clone returns a deep copy of the aggregate
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	clone := &GameState{
		Players: make([]*Player, 0, len(s.Players)),
		Horses:  make([]*Horse, 0, len(s.Horses)),
		Dice:    make([]*DiceRoll, 0, len(s.Dice)),
	}
	if s.Game != nil {
		game := *s.Game
		clone.Game = &game
	}
	for _, p := range s.Players {
		player := *p
		clone.Players = append(clone.Players, &player)
	}
	for _, h := range s.Horses {
		horse := *h
		clone.Horses = append(clone.Horses, &horse)
	}
	for _, d := range s.Dice {
		roll := *d
		clone.Dice = append(clone.Dice, &roll)
	}
	return clone
}
