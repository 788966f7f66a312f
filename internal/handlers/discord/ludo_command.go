package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KirkDiggler/horserace/internal/common/retry"
	"github.com/KirkDiggler/horserace/internal/services/game"
	"github.com/KirkDiggler/horserace/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// actionTimeout bounds one interaction, Discord drops responses after three seconds
const actionTimeout = 2500 * time.Millisecond

// LudoCommand handles the /ludo command and the buttons of its messages
type LudoCommand struct {
	BaseCommand
	gameService game.Service
	messaging   messaging.Service
	retrier     *retry.Retrier
	logger      *zap.Logger
}

// NewLudoCommand creates a new ludo command handler
func NewLudoCommand(gameService game.Service, messagingService messaging.Service, logger *zap.Logger) *LudoCommand {
	if logger == nil {
		logger = zap.NewNop()
	}

	capacityChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(game.ValidCapacities))
	for _, c := range game.ValidCapacities {
		capacityChoices = append(capacityChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%d players", c),
			Value: c,
		})
	}
	stepChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(game.ValidStepTimes))
	for _, s := range game.ValidStepTimes {
		stepChoices = append(stepChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%d seconds", s),
			Value: s,
		})
	}

	return &LudoCommand{
		BaseCommand: BaseCommand{
			Name:        "ludo",
			Description: "Horse race board game commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Open a new race and take the first seat",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "players",
							Description: "Number of seats",
							Required:    true,
							Choices:     capacityChoices,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "step",
							Description: "Seconds per turn",
							Required:    true,
							Choices:     stepChoices,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "join",
					Description: "Take a seat in a race",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "game_id",
							Description: "The race to join",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "games",
					Description: "List the open races",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "state",
					Description: "Show the board of your race",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "roll",
					Description: "Roll the dice",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "move",
					Description: "Move one of your horses by the dice",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "horse",
							Description: "Horse number, 1 to 4",
							Required:    true,
							MinValue:    floatPtr(1),
							MaxValue:    4,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pass",
					Description: "Give the turn to the next rider",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leave",
					Description: "Leave your race",
				},
			},
		},
		gameService: gameService,
		messaging:   messagingService,
		retrier:     retry.New(nil, game.IsRetryable),
		logger:      logger,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

// Handle processes a Discord interaction for the ludo command
func (c *LudoCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name || len(data.Options) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	sub := data.Options[0]
	return respond(s, i, c.dispatch(ctx, loginOf(i), sub.Name, optionMap(sub.Options)))
}

// HandleComponent processes a click on one of the buttons this command renders
func (c *LudoCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	return respond(s, i, c.click(ctx, loginOf(i), i.MessageComponentData().CustomID))
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) intValue(name string) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return 0
}

func (o options) stringValue(name string) string {
	if opt, ok := o[name]; ok {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func (c *LudoCommand) dispatch(ctx context.Context, login, sub string, opts options) *reply {
	switch sub {
	case "create":
		return c.create(ctx, login, opts.intValue("players"), opts.intValue("step"))
	case "join":
		return c.join(ctx, login, opts.stringValue("game_id"))
	case "games":
		return c.games(ctx)
	case "state":
		return c.state(ctx, login)
	case "roll":
		return c.roll(ctx, login)
	case "move":
		return c.move(ctx, login, opts.intValue("horse"))
	case "pass":
		return c.pass(ctx, login)
	case "leave":
		return c.leave(ctx, login)
	default:
		return errorReply("Unknown command", fmt.Sprintf("I don't know `/ludo %s`.", sub))
	}
}

func (c *LudoCommand) click(ctx context.Context, login, customID string) *reply {
	switch {
	case customID == ButtonRoll:
		return c.roll(ctx, login)
	case customID == ButtonPass:
		return c.pass(ctx, login)
	case customID == ButtonRefresh:
		return c.state(ctx, login)
	case customID == ButtonLeave:
		return c.leave(ctx, login)
	case strings.HasPrefix(customID, ButtonMovePrefix):
		number, err := strconv.Atoi(strings.TrimPrefix(customID, ButtonMovePrefix))
		if err != nil {
			return errorReply("Unknown button", customID)
		}
		return c.move(ctx, login, number)
	case strings.HasPrefix(customID, ButtonJoinPrefix):
		return c.join(ctx, login, strings.TrimPrefix(customID, ButtonJoinPrefix))
	default:
		return errorReply("Unknown button", customID)
	}
}

// fail turns an error of the game service into a reply
func (c *LudoCommand) fail(ctx context.Context, action string, err error) *reply {
	if game.KindOf(err) == game.KindInternal {
		c.logger.Error("discord action failed", zap.String("action", action), zap.Error(err))
	} else {
		c.logger.Debug("discord action rejected", zap.String("action", action), zap.Error(err))
	}

	out, msgErr := c.messaging.GetErrorMessage(ctx, &messaging.GetErrorMessageInput{Err: err})
	if msgErr != nil {
		return errorReply("Error", err.Error())
	}
	return errorReply(out.Title, out.Message)
}

// currentGame finds the race login is seated in
func (c *LudoCommand) currentGame(ctx context.Context, login string) (string, error) {
	out, err := c.gameService.GetGameByLogin(ctx, &game.GetGameByLoginInput{Login: login})
	if err != nil {
		return "", err
	}
	return out.GameID, nil
}

func (c *LudoCommand) render(ctx context.Context, gameID, prefix string) (*reply, error) {
	out, err := retry.Do(ctx, c.retrier, func() (*game.GetStateOutput, error) {
		return c.gameService.GetState(ctx, &game.GetStateInput{GameID: gameID})
	})
	if err != nil {
		return nil, err
	}

	status, err := c.messaging.GetGameStatusMessage(ctx, &messaging.GetGameStatusMessageInput{State: out.State})
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		status.Message = prefix + "\n" + status.Message
	}
	return renderState(out.State, status), nil
}

func (c *LudoCommand) create(ctx context.Context, login string, capacity, step int) *reply {
	created, err := c.gameService.CreateGame(ctx, &game.CreateGameInput{
		PlayerCapacity:  capacity,
		StepTimeSeconds: step,
	})
	if err != nil {
		return c.fail(ctx, "create", err)
	}
	c.logger.Info("race created from discord", zap.String("game_id", created.GameID), zap.String("login", login))

	return c.join(ctx, login, created.GameID)
}

func (c *LudoCommand) join(ctx context.Context, login, gameID string) *reply {
	joined, err := retry.Do(ctx, c.retrier, func() (*game.JoinGameOutput, error) {
		return c.gameService.JoinGame(ctx, &game.JoinGameInput{GameID: gameID, Login: login})
	})
	if err != nil {
		return c.fail(ctx, "join", err)
	}

	msg, err := c.messaging.GetJoinGameMessage(ctx, &messaging.GetJoinGameMessageInput{
		Login:       login,
		Color:       joined.Color,
		GameStarted: joined.GameStarted,
	})
	if err != nil {
		return c.fail(ctx, "join", err)
	}

	r, err := c.render(ctx, gameID, msg.Message)
	if err != nil {
		return c.fail(ctx, "join", err)
	}
	return r
}

func (c *LudoCommand) games(ctx context.Context) *reply {
	out, err := c.gameService.ListGames(ctx, &game.ListGamesInput{})
	if err != nil {
		return c.fail(ctx, "games", err)
	}
	return renderGames(out.Games)
}

func (c *LudoCommand) state(ctx context.Context, login string) *reply {
	gameID, err := c.currentGame(ctx, login)
	if err != nil {
		return c.fail(ctx, "state", err)
	}

	r, err := c.render(ctx, gameID, "")
	if err != nil {
		return c.fail(ctx, "state", err)
	}
	return r
}

func (c *LudoCommand) roll(ctx context.Context, login string) *reply {
	gameID, err := c.currentGame(ctx, login)
	if err != nil {
		return c.fail(ctx, "roll", err)
	}

	rolled, err := retry.Do(ctx, c.retrier, func() (*game.RollOutput, error) {
		return c.gameService.Roll(ctx, &game.RollInput{GameID: gameID, Login: login})
	})
	if err != nil {
		return c.fail(ctx, "roll", err)
	}

	msg, err := c.messaging.GetRollResultMessage(ctx, &messaging.GetRollResultMessageInput{
		Login:            login,
		DiceValue:        rolled.DiceValue,
		RemainingSeconds: rolled.RemainingSeconds,
	})
	if err != nil {
		return c.fail(ctx, "roll", err)
	}

	r := renderMessage(msg.Title, msg.Message, msg.Tone)
	r.Components = turnButtons()
	return r
}

func (c *LudoCommand) move(ctx context.Context, login string, number int) *reply {
	gameID, err := c.currentGame(ctx, login)
	if err != nil {
		return c.fail(ctx, "move", err)
	}

	state, err := c.gameService.GetState(ctx, &game.GetStateInput{GameID: gameID})
	if err != nil {
		return c.fail(ctx, "move", err)
	}
	horseID, ok := horseIDFor(state.State, login, number)
	if !ok {
		return c.fail(ctx, "move", game.ErrHorseNotFound)
	}

	moved, err := retry.Do(ctx, c.retrier, func() (*game.MoveOutput, error) {
		return c.gameService.Move(ctx, &game.MoveInput{GameID: gameID, HorseID: horseID, Login: login})
	})
	if err != nil {
		return c.fail(ctx, "move", err)
	}

	msg, err := c.messaging.GetMoveResultMessage(ctx, &messaging.GetMoveResultMessageInput{
		Login:         login,
		From:          moved.From,
		To:            moved.To,
		DiceValue:     moved.DiceValue,
		Captured:      moved.CapturedHorseID != "",
		Finished:      moved.Finished,
		CanRollAgain:  moved.CanRollAgain,
		NextTurnLogin: moved.NextTurnLogin,
		WinnerColor:   moved.WinnerColor,
	})
	if err != nil {
		return c.fail(ctx, "move", err)
	}

	r := renderMessage(msg.Title, msg.Message, msg.Tone)
	if moved.WinnerColor == "" {
		r.Components = turnButtons()
	}
	return r
}

func (c *LudoCommand) pass(ctx context.Context, login string) *reply {
	gameID, err := c.currentGame(ctx, login)
	if err != nil {
		return c.fail(ctx, "pass", err)
	}

	passed, err := retry.Do(ctx, c.retrier, func() (*game.PassOutput, error) {
		return c.gameService.Pass(ctx, &game.PassInput{GameID: gameID, Login: login})
	})
	if err != nil {
		return c.fail(ctx, "pass", err)
	}

	r := renderMessage(
		fmt.Sprintf("⏭️ %s passed", login),
		fmt.Sprintf("%s is up next.", passed.NextTurnLogin),
		messaging.ToneNeutral,
	)
	r.Components = turnButtons()
	return r
}

func (c *LudoCommand) leave(ctx context.Context, login string) *reply {
	gameID, err := c.currentGame(ctx, login)
	if err != nil {
		return c.fail(ctx, "leave", err)
	}

	left, err := retry.Do(ctx, c.retrier, func() (*game.LeaveGameOutput, error) {
		return c.gameService.LeaveGame(ctx, &game.LeaveGameInput{GameID: gameID, Login: login})
	})
	if err != nil && !errors.Is(err, game.ErrPlayerNotFound) {
		return c.fail(ctx, "leave", err)
	}

	message := fmt.Sprintf("%s left the race.", login)
	if left != nil && left.GameDeleted {
		message += " The stable is empty, race closed."
	}
	return renderMessage("👋 Bye", message, messaging.ToneNeutral)
}
