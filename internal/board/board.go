// Package board holds the fixed geometry of the race track and the pure movement rules.
package board

import (
	"github.com/KirkDiggler/horserace/internal/models"
)

const (
	// MainTrackLength is the number of cells on the shared ring
	MainTrackLength = 52

	// LaneLength is the number of cells in every home lane, the last one being the finish
	LaneLength = 6

	// YardPosition is the position of a horse that has not entered the track
	YardPosition = models.YardPosition

	// ExitValue is the dice value needed to leave the yard
	ExitValue = 6
)

// layout is the per-color geometry of the board
type layout struct {
	// start is the main track cell a horse lands on when leaving the yard
	start int

	// entry is the last main track cell before the home lane
	entry int

	// laneStart is the first cell of the home lane
	laneStart int
}

func (l layout) laneEnd() int {
	return l.laneStart + LaneLength - 1
}

// layouts is indexed by models.Color.Index()
var layouts = [models.MaxSeats]layout{
	{start: 0, entry: 50, laneStart: 52},  // green
	{start: 13, entry: 11, laneStart: 58}, // yellow
	{start: 26, entry: 24, laneStart: 64}, // blue
	{start: 39, entry: 37, laneStart: 70}, // red
}

// safeCells are the main track cells where no capture happens
var safeCells = map[int]bool{
	0: true, 8: true, 13: true, 21: true, 26: true, 34: true, 39: true, 47: true,
}

func layoutFor(color models.Color) (layout, bool) {
	idx := color.Index()
	if idx < 0 {
		return layout{}, false
	}
	return layouts[idx], true
}

// SafeCells returns the safe main track cells in ascending order
func SafeCells() []int {
	return []int{0, 8, 13, 21, 26, 34, 39, 47}
}

// IsSafe reports whether a capture can never happen on cell
func IsSafe(cell int) bool {
	return safeCells[cell]
}

// StartCell returns the cell a horse of color enters the track on
func StartCell(color models.Color) int {
	l, ok := layoutFor(color)
	if !ok {
		return YardPosition
	}
	return l.start
}

// EntryCell returns the last main track cell before the home lane of color
func EntryCell(color models.Color) int {
	l, ok := layoutFor(color)
	if !ok {
		return YardPosition
	}
	return l.entry
}

// FinishCell returns the terminal cell of the home lane of color
func FinishCell(color models.Color) int {
	l, ok := layoutFor(color)
	if !ok {
		return YardPosition
	}
	return l.laneEnd()
}

// InHomeLane reports whether position is one of the lane cells of color
func InHomeLane(position int, color models.Color) bool {
	l, ok := layoutFor(color)
	if !ok {
		return false
	}
	return position >= l.laneStart && position <= l.laneEnd()
}

// OnMainTrack reports whether position is a cell of the shared ring
func OnMainTrack(position int) bool {
	return position >= 0 && position < MainTrackLength
}
