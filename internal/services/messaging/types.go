package messaging

import (
	"github.com/KirkDiggler/horserace/internal/models"
)

// MessageTone represents the tone of a message
type MessageTone string

const (
	// ToneNeutral is a neutral tone
	ToneNeutral MessageTone = "neutral"

	// ToneFunny is a humorous tone
	ToneFunny MessageTone = "funny"

	// ToneEncouraging is an encouraging tone
	ToneEncouraging MessageTone = "encouraging"

	// ToneCelebration is a celebratory tone
	ToneCelebration MessageTone = "celebration"
)

// ServiceConfig holds configuration for the messaging service
type ServiceConfig struct {
	// Seed makes the message selection reproducible, zero picks a random seed
	Seed int64
}

// GetJoinGameMessageInput contains parameters for getting a join game message
type GetJoinGameMessageInput struct {
	Login string
	Color models.Color

	// GameStarted is set when this join filled the last seat
	GameStarted bool
}

// GetJoinGameMessageOutput contains the result of getting a join game message
type GetJoinGameMessageOutput struct {
	Message string
	Tone    MessageTone
}

// GetRollResultMessageInput contains the input for GetRollResultMessage
type GetRollResultMessageInput struct {
	Login            string
	DiceValue        int
	RemainingSeconds int
}

// GetRollResultMessageOutput contains the output for GetRollResultMessage
type GetRollResultMessageOutput struct {
	Title   string
	Message string
	Tone    MessageTone
}

// GetMoveResultMessageInput contains the input for GetMoveResultMessage
type GetMoveResultMessageInput struct {
	Login         string
	From          int
	To            int
	DiceValue     int
	Captured      bool
	Finished      bool
	CanRollAgain  bool
	NextTurnLogin string
	WinnerColor   models.Color
}

// GetMoveResultMessageOutput contains the output for GetMoveResultMessage
type GetMoveResultMessageOutput struct {
	Title   string
	Message string
	Tone    MessageTone
}

// GetGameStatusMessageInput is the input for GetGameStatusMessage
type GetGameStatusMessageInput struct {
	State *models.Snapshot
}

// GetGameStatusMessageOutput is the output for GetGameStatusMessage
type GetGameStatusMessageOutput struct {
	Title   string
	Message string
}

// GetErrorMessageInput contains parameters for getting an error message
type GetErrorMessageInput struct {
	Err error
}

// GetErrorMessageOutput contains the result of getting an error message
type GetErrorMessageOutput struct {
	Title   string
	Message string
}
