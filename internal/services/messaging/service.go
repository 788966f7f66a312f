package messaging

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/KirkDiggler/horserace/internal/services/game"
)

var (
	// ErrNilConfig is returned when NewService is called without a config
	ErrNilConfig = errors.New("config cannot be nil")

	// ErrNilError is returned when an error message is requested without an error
	ErrNilError = errors.New("error cannot be nil")
)

// service implements the Service interface
type service struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewService creates a new messaging service
func NewService(cfg *ServiceConfig) (Service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &service{
		rand: rand.New(rand.NewSource(seed)),
	}, nil
}

// pick returns one of messages
func (s *service) pick(messages []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return messages[s.rand.Intn(len(messages))]
}

var (
	joinMessages = []string{
		"%s saddles up on the %s side.",
		"A new rider! %s takes the %s stable.",
		"%s is in, wearing %s. The horses look nervous.",
		"Welcome %s, your %s horses are waiting in the yard.",
	}

	startMessages = []string{
		"And they're off! %s fills the last seat on %s.",
		"%s takes the %s stable and the gates open!",
		"Last seat taken by %s (%s). Race on!",
	}

	sixMessages = []string{
		"A six! %s gets to roll again.",
		"%s rolled a six. Out of the yard and one more go!",
		"Six for %s! The crowd goes wild.",
	}

	lowMessages = []string{
		"%s rolled a %d. Slow and steady.",
		"%s gets a %d. Every step counts.",
		"%s trots forward with a %d.",
	}

	captureMessages = []string{
		"%s sends a rival horse back to the yard!",
		"Ouch! %s just knocked someone back to the stable.",
		"%s lands right on top of an opponent. Back home they go!",
	}

	finishMessages = []string{
		"%s brings a horse home!",
		"One more horse safely home for %s.",
	}
)

// GetJoinGameMessage returns a message for when a player takes a seat
func (s *service) GetJoinGameMessage(_ context.Context, input *GetJoinGameMessageInput) (*GetJoinGameMessageOutput, error) {
	if input.GameStarted {
		return &GetJoinGameMessageOutput{
			Message: fmt.Sprintf(s.pick(startMessages), input.Login, input.Color),
			Tone:    ToneCelebration,
		}, nil
	}
	return &GetJoinGameMessageOutput{
		Message: fmt.Sprintf(s.pick(joinMessages), input.Login, input.Color),
		Tone:    ToneFunny,
	}, nil
}

// GetRollResultMessage returns a message for a revealed dice
func (s *service) GetRollResultMessage(_ context.Context, input *GetRollResultMessageInput) (*GetRollResultMessageOutput, error) {
	out := &GetRollResultMessageOutput{
		Title: fmt.Sprintf("🎲 %s rolled a %d", input.Login, input.DiceValue),
	}

	if input.DiceValue == 6 {
		out.Message = fmt.Sprintf(s.pick(sixMessages), input.Login)
		out.Tone = ToneCelebration
	} else {
		out.Message = fmt.Sprintf(s.pick(lowMessages), input.Login, input.DiceValue)
		out.Tone = ToneNeutral
	}

	if input.RemainingSeconds > 0 {
		out.Message += fmt.Sprintf(" %ds left to move.", input.RemainingSeconds)
	}
	return out, nil
}

// GetMoveResultMessage returns a message describing a move
func (s *service) GetMoveResultMessage(_ context.Context, input *GetMoveResultMessageInput) (*GetMoveResultMessageOutput, error) {
	if input.WinnerColor != "" {
		return &GetMoveResultMessageOutput{
			Title:   "🏆 We have a winner!",
			Message: fmt.Sprintf("%s wins the race for %s!", input.Login, input.WinnerColor),
			Tone:    ToneCelebration,
		}, nil
	}

	out := &GetMoveResultMessageOutput{
		Title:   fmt.Sprintf("🐎 %s moved %s", input.Login, route(input.From, input.To)),
		Message: fmt.Sprintf("%s moves %d.", input.Login, input.DiceValue),
		Tone:    ToneNeutral,
	}

	switch {
	case input.Captured:
		out.Message = fmt.Sprintf(s.pick(captureMessages), input.Login)
		out.Tone = ToneFunny
	case input.Finished:
		out.Message = fmt.Sprintf(s.pick(finishMessages), input.Login)
		out.Tone = ToneEncouraging
	}

	if input.CanRollAgain {
		out.Message += " Roll again!"
	} else if input.NextTurnLogin != "" {
		out.Message += fmt.Sprintf(" %s is up next.", input.NextTurnLogin)
	}
	return out, nil
}

func route(from, to int) string {
	if from == models.YardPosition {
		return fmt.Sprintf("out of the yard to cell %d", to)
	}
	return fmt.Sprintf("from cell %d to %d", from, to)
}

// GetGameStatusMessage returns a headline for a game snapshot
func (s *service) GetGameStatusMessage(_ context.Context, input *GetGameStatusMessageInput) (*GetGameStatusMessageOutput, error) {
	state := input.State
	if state == nil {
		return &GetGameStatusMessageOutput{Title: "No game", Message: "There is nothing to show."}, nil
	}

	switch state.Status {
	case models.GameStatusWaiting:
		return &GetGameStatusMessageOutput{
			Title: "Waiting for riders",
			Message: fmt.Sprintf("%d of %d seats taken. The race starts when the stable is full.",
				len(state.Players), state.PlayerCapacity),
		}, nil
	case models.GameStatusFinished:
		return &GetGameStatusMessageOutput{
			Title:   "Race over",
			Message: fmt.Sprintf("%s won the race.", state.WinnerColor),
		}, nil
	default:
		return &GetGameStatusMessageOutput{
			Title: fmt.Sprintf("%s to play", state.CurrentTurn),
			Message: fmt.Sprintf("%ds left on the clock, %ds per turn.",
				state.RemainingTimeSeconds, state.StepTimeSeconds),
		}, nil
	}
}

// GetErrorMessage returns a user-friendly error message
func (s *service) GetErrorMessage(_ context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error) {
	if input == nil || input.Err == nil {
		return nil, ErrNilError
	}

	var gameErr game.GameError
	if !errors.As(input.Err, &gameErr) {
		return &GetErrorMessageOutput{
			Title:   "Something went wrong",
			Message: "The stable hands tripped over something. Try again in a moment.",
		}, nil
	}

	switch gameErr {
	case game.ErrNotYourTurn:
		return &GetErrorMessageOutput{Title: "Hold your horses", Message: "It's not your turn yet."}, nil
	case game.ErrMustMoveFirst:
		return &GetErrorMessageOutput{Title: "Already rolled", Message: "You rolled already, now pick a horse to move."}, nil
	case game.ErrRollFirst:
		return &GetErrorMessageOutput{Title: "No dice yet", Message: "Roll the dice before moving."}, nil
	case game.ErrTurnExpired, game.ErrConflict:
		return &GetErrorMessageOutput{Title: "Too slow", Message: "The board changed under you. Check the state and try again."}, nil
	case game.ErrSeatedElsewhere:
		return &GetErrorMessageOutput{Title: "Already racing", Message: "You're seated in another game. Leave it first."}, nil
	}

	switch gameErr.Kind() {
	case game.KindInvalidMove:
		return &GetErrorMessageOutput{Title: "That horse can't go there", Message: input.Err.Error()}, nil
	case game.KindNotFound:
		return &GetErrorMessageOutput{Title: "Not found", Message: input.Err.Error()}, nil
	default:
		return &GetErrorMessageOutput{Title: "Can't do that", Message: input.Err.Error()}, nil
	}
}
