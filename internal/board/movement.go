package board

import (
	"errors"

	"github.com/KirkDiggler/horserace/internal/models"
)

var (
	// ErrInvalidDice is returned for values outside 1..6
	ErrInvalidDice = errors.New("dice value must be between 1 and 6")

	// ErrYardNeedsSix is returned when a yard horse is moved without a six
	ErrYardNeedsSix = errors.New("a six is needed to leave the yard")

	// ErrOvershoot is returned when a lane move would pass the finish cell
	ErrOvershoot = errors.New("cannot move beyond finish")

	// ErrNoMove is returned when the move would leave the horse where it is
	ErrNoMove = errors.New("invalid move")

	// ErrUnknownColor is returned for colors that are not on the board
	ErrUnknownColor = errors.New("unknown color")
)

// Piece is a horse as seen by the capture rule
type Piece struct {
	HorseID  string
	Color    models.Color
	Position int
}

// StepsToEntry returns how many cells a horse on the main track is away from its lane entry
func StepsToEntry(position int, color models.Color) int {
	l, ok := layoutFor(color)
	if !ok {
		return 0
	}
	return (l.entry - position + MainTrackLength) % MainTrackLength
}

// MoveHorse computes the position a horse of color reaches from position with dice.
// Moves that are not possible return position unchanged.
func MoveHorse(position int, color models.Color, dice int) int {
	l, ok := layoutFor(color)
	if !ok {
		return position
	}

	if position == YardPosition {
		if dice == ExitValue {
			return l.start
		}
		return YardPosition
	}

	if position >= l.laneStart && position <= l.laneEnd() {
		next := position + dice
		if next > l.laneEnd() {
			return position
		}
		return next
	}

	steps := StepsToEntry(position, color)
	if dice > steps {
		return min(l.laneStart+dice-steps-1, l.laneEnd())
	}

	return (position + dice) % MainTrackLength
}

// IsFinished reports whether position is the finish cell of color
func IsFinished(position int, color models.Color) bool {
	l, ok := layoutFor(color)
	if !ok {
		return false
	}
	return position == l.laneEnd()
}

// ValidateMove computes the destination of a move and rejects the ones the rules forbid
func ValidateMove(position int, color models.Color, dice int) (int, error) {
	if dice < 1 || dice > 6 {
		return position, ErrInvalidDice
	}
	l, ok := layoutFor(color)
	if !ok {
		return position, ErrUnknownColor
	}

	if position == YardPosition {
		if dice != ExitValue {
			return position, ErrYardNeedsSix
		}
		return l.start, nil
	}

	if InHomeLane(position, color) && position+dice > l.laneEnd() {
		return position, ErrOvershoot
	}

	next := MoveHorse(position, color, dice)
	if next == position {
		return position, ErrNoMove
	}
	return next, nil
}

// CheckCapture returns the piece sent back to the yard when a horse of color lands on
// newPosition, or nil. Pieces of the same color never capture each other.
func CheckCapture(newPosition int, color models.Color, pieces []Piece) *Piece {
	if !OnMainTrack(newPosition) || IsSafe(newPosition) {
		return nil
	}
	for i := range pieces {
		if pieces[i].Position == newPosition && pieces[i].Color != color {
			return &pieces[i]
		}
	}
	return nil
}
