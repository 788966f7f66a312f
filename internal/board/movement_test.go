package board

import (
	"testing"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/stretchr/testify/suite"
)

type MovementTestSuite struct {
	suite.Suite
}

func TestMovementTestSuite(t *testing.T) {
	suite.Run(t, new(MovementTestSuite))
}

func (s *MovementTestSuite) TestYardExitOnlyWithSix() {
	for _, color := range models.SeatColors {
		for dice := 1; dice <= 6; dice++ {
			got := MoveHorse(YardPosition, color, dice)
			if dice == 6 {
				s.Equal(StartCell(color), got, "color %s dice %d", color, dice)
			} else {
				s.Equal(YardPosition, got, "color %s dice %d", color, dice)
			}
		}
	}
}

func (s *MovementTestSuite) TestStartCells() {
	s.Equal(0, StartCell(models.ColorGreen))
	s.Equal(13, StartCell(models.ColorYellow))
	s.Equal(26, StartCell(models.ColorBlue))
	s.Equal(39, StartCell(models.ColorRed))
}

func (s *MovementTestSuite) TestStraightMovesWrapTheTrack() {
	for _, color := range models.SeatColors {
		for p := 0; p < MainTrackLength; p++ {
			for dice := 1; dice <= 6; dice++ {
				if StepsToEntry(p, color) < dice {
					continue
				}
				s.Equal((p+dice)%MainTrackLength, MoveHorse(p, color, dice),
					"color %s position %d dice %d", color, p, dice)
			}
		}
	}
}

func (s *MovementTestSuite) TestWrapAroundZero() {
	// yellow enters at 11, so it travels over the 51 -> 0 seam
	s.Equal(2, MoveHorse(49, models.ColorYellow, 5))
}

func (s *MovementTestSuite) TestEnteringTheHomeLane() {
	// green entry is 50, lane 52..57
	s.Equal(52, MoveHorse(50, models.ColorGreen, 1))
	s.Equal(53, MoveHorse(49, models.ColorGreen, 3))
	s.Equal(57, MoveHorse(50, models.ColorGreen, 6))

	// red entry is 37, lane 70..75
	s.Equal(37, MoveHorse(35, models.ColorRed, 2))
	s.Equal(70, MoveHorse(35, models.ColorRed, 3))
	s.Equal(74, MoveHorse(36, models.ColorRed, 6))
}

func (s *MovementTestSuite) TestLaneMoves() {
	s.Equal(60, MoveHorse(58, models.ColorYellow, 2))
	s.Equal(63, MoveHorse(58, models.ColorYellow, 5))

	// overshoot leaves the horse in place
	s.Equal(62, MoveHorse(62, models.ColorYellow, 2))
	s.Equal(69, MoveHorse(69, models.ColorBlue, 1))
}

func (s *MovementTestSuite) TestIsFinished() {
	finish := map[models.Color]int{
		models.ColorGreen:  57,
		models.ColorYellow: 63,
		models.ColorBlue:   69,
		models.ColorRed:    75,
	}
	for color, cell := range finish {
		s.True(IsFinished(cell, color))
		s.Equal(cell, FinishCell(color))
		s.False(IsFinished(YardPosition, color))
		s.False(IsFinished(cell-1, color))
		for other, otherCell := range finish {
			if other != color {
				s.False(IsFinished(otherCell, color))
			}
		}
	}
	for p := -1; p < MainTrackLength; p++ {
		s.False(IsFinished(p, models.ColorGreen))
	}
}

func (s *MovementTestSuite) TestCheckCaptureIgnoresSafeCells() {
	for _, cell := range SafeCells() {
		pieces := []Piece{{HorseID: "victim", Color: models.ColorBlue, Position: cell}}
		s.Nil(CheckCapture(cell, models.ColorGreen, pieces), "cell %d", cell)
	}
}

func (s *MovementTestSuite) TestCheckCaptureIgnoresSameColor() {
	pieces := []Piece{
		{HorseID: "friend-1", Color: models.ColorGreen, Position: 5},
		{HorseID: "friend-2", Color: models.ColorGreen, Position: 5},
		{HorseID: "elsewhere", Color: models.ColorRed, Position: 6},
	}
	s.Nil(CheckCapture(5, models.ColorGreen, pieces))
}

func (s *MovementTestSuite) TestCheckCaptureReturnsOpponent() {
	pieces := []Piece{
		{HorseID: "friend", Color: models.ColorGreen, Position: 5},
		{HorseID: "victim", Color: models.ColorRed, Position: 5},
	}
	captured := s.Require().NotNil
	got := CheckCapture(5, models.ColorGreen, pieces)
	captured(got)
	s.Equal("victim", got.HorseID)
}

func (s *MovementTestSuite) TestCheckCaptureNeverTouchesTheYard() {
	pieces := []Piece{{HorseID: "idle", Color: models.ColorRed, Position: YardPosition}}
	s.Nil(CheckCapture(YardPosition, models.ColorGreen, pieces))
}

func (s *MovementTestSuite) TestValidateMove() {
	testCases := []struct {
		name     string
		position int
		color    models.Color
		dice     int
		want     int
		wantErr  error
	}{
		{name: "yard exit", position: YardPosition, color: models.ColorBlue, dice: 6, want: 26},
		{name: "yard without six", position: YardPosition, color: models.ColorBlue, dice: 5, want: YardPosition, wantErr: ErrYardNeedsSix},
		{name: "lane overshoot", position: 73, color: models.ColorRed, dice: 3, want: 73, wantErr: ErrOvershoot},
		{name: "finished horse", position: 57, color: models.ColorGreen, dice: 1, want: 57, wantErr: ErrOvershoot},
		{name: "exact finish", position: 72, color: models.ColorRed, dice: 3, want: 75},
		{name: "track move", position: 10, color: models.ColorGreen, dice: 4, want: 14},
		{name: "bad dice", position: 10, color: models.ColorGreen, dice: 7, want: 10, wantErr: ErrInvalidDice},
		{name: "bad color", position: 10, color: models.Color("purple"), dice: 3, want: 10, wantErr: ErrUnknownColor},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := ValidateMove(tc.position, tc.color, tc.dice)
			if tc.wantErr != nil {
				s.ErrorIs(err, tc.wantErr)
			} else {
				s.NoError(err)
			}
			s.Equal(tc.want, got)
		})
	}
}
