package models

// Color identifies one of the four sides of the board
type Color string

const (
	// ColorGreen is assigned to seat 1
	ColorGreen Color = "green"

	// ColorYellow is assigned to seat 2
	ColorYellow Color = "yellow"

	// ColorBlue is assigned to seat 3
	ColorBlue Color = "blue"

	// ColorRed is assigned to seat 4
	ColorRed Color = "red"
)

// MaxSeats is the number of seats (and colors) on a board
const MaxSeats = 4

// SeatColors maps a zero-based seat index to its color
var SeatColors = [MaxSeats]Color{ColorGreen, ColorYellow, ColorBlue, ColorRed}

// Index returns the position of the color in SeatColors, or -1 for unknown colors
func (c Color) Index() int {
	for i, color := range SeatColors {
		if color == c {
			return i
		}
	}
	return -1
}

// IsValid reports whether the color is one of the four board colors
func (c Color) IsValid() bool {
	return c.Index() >= 0
}

// ColorForSeat returns the color of a 1-based seat number
func ColorForSeat(seatNumber int) (Color, bool) {
	if seatNumber < 1 || seatNumber > MaxSeats {
		return "", false
	}
	return SeatColors[seatNumber-1], true
}
