package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/horserace/internal/board"
	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/KirkDiggler/horserace/internal/services/game"
	"github.com/KirkDiggler/horserace/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// Button IDs
const (
	ButtonRoll    = "ludo_roll"
	ButtonPass    = "ludo_pass"
	ButtonRefresh = "ludo_state"
	ButtonLeave   = "ludo_leave"

	// ButtonMovePrefix is followed by the horse number
	ButtonMovePrefix = "ludo_move:"

	// ButtonJoinPrefix is followed by the game ID
	ButtonJoinPrefix = "ludo_join:"
)

var colorEmoji = map[models.Color]string{
	models.ColorGreen:  "🟢",
	models.ColorYellow: "🟡",
	models.ColorBlue:   "🔵",
	models.ColorRed:    "🔴",
}

// horseLabel describes where a horse stands
func horseLabel(position int, color models.Color) string {
	switch {
	case position == models.YardPosition:
		return "yard"
	case board.IsFinished(position, color):
		return "home 🏁"
	case board.InHomeLane(position, color):
		return fmt.Sprintf("lane %d", position)
	case board.IsSafe(position):
		return fmt.Sprintf("cell %d ⭐", position)
	default:
		return fmt.Sprintf("cell %d", position)
	}
}

// renderPlayerField renders one seat of the board
func renderPlayerField(p *models.PlayerSnapshot) *discordgo.MessageEmbedField {
	name := fmt.Sprintf("%s %s", colorEmoji[p.Color], p.Login)
	if p.IsTurn {
		name += " 🎲"
	}

	horses := make([]string, 0, len(p.Horses))
	for _, h := range p.Horses {
		horses = append(horses, fmt.Sprintf("#%d %s", h.Number, horseLabel(h.Position, p.Color)))
	}

	return &discordgo.MessageEmbedField{
		Name:   name,
		Value:  strings.Join(horses, "\n"),
		Inline: true,
	}
}

// renderState renders a snapshot as an embed with the buttons that fit its status
func renderState(state *models.Snapshot, status *messaging.GetGameStatusMessageOutput) *reply {
	embed := &discordgo.MessageEmbed{
		Title:       status.Title,
		Description: status.Message,
		Color:       colorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Game " + state.GameID},
	}
	for _, p := range state.Players {
		embed.Fields = append(embed.Fields, renderPlayerField(p))
	}
	if state.DiceValue > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Dice",
			Value: strconv.Itoa(state.DiceValue),
		})
	}

	switch state.Status {
	case models.GameStatusWaiting:
		embed.Color = colorWaiting
		return &reply{Embed: embed, Components: joinButtons(state.GameID)}
	case models.GameStatusFinished:
		embed.Color = colorWinner
		return &reply{Embed: embed}
	default:
		return &reply{Embed: embed, Components: turnButtons()}
	}
}

func joinButtons(gameID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Join",
				Style:    discordgo.SuccessButton,
				CustomID: ButtonJoinPrefix + gameID,
				Emoji:    &discordgo.ComponentEmoji{Name: "🐎"},
			},
			discordgo.Button{
				Label:    "Refresh",
				Style:    discordgo.SecondaryButton,
				CustomID: ButtonRefresh,
			},
		}},
	}
}

func turnButtons() []discordgo.MessageComponent {
	moves := make([]discordgo.MessageComponent, 0, models.HorsesPerPlayer)
	for n := 1; n <= models.HorsesPerPlayer; n++ {
		moves = append(moves, discordgo.Button{
			Label:    fmt.Sprintf("Move #%d", n),
			Style:    discordgo.SecondaryButton,
			CustomID: ButtonMovePrefix + strconv.Itoa(n),
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Roll",
				Style:    discordgo.PrimaryButton,
				CustomID: ButtonRoll,
				Emoji:    &discordgo.ComponentEmoji{Name: "🎲"},
			},
			discordgo.Button{
				Label:    "Pass",
				Style:    discordgo.SecondaryButton,
				CustomID: ButtonPass,
			},
			discordgo.Button{
				Label:    "Refresh",
				Style:    discordgo.SecondaryButton,
				CustomID: ButtonRefresh,
			},
			discordgo.Button{
				Label:    "Leave",
				Style:    discordgo.DangerButton,
				CustomID: ButtonLeave,
			},
		}},
		discordgo.ActionsRow{Components: moves},
	}
}

// renderGames renders the room listing
func renderGames(games []*game.GameSummary) *reply {
	embed := &discordgo.MessageEmbed{
		Title: "🏇 Races",
		Color: colorInfo,
	}
	if len(games) == 0 {
		embed.Description = "No races yet. Use `/ludo create` to open one."
		return &reply{Embed: embed}
	}

	for _, g := range games {
		riders := "nobody yet"
		if len(g.Logins) > 0 {
			riders = strings.Join(g.Logins, ", ")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: g.GameID,
			Value: fmt.Sprintf("%s, %d/%d seats, %ds turns\n%s",
				g.Status, g.CurrentPlayers, g.PlayerCapacity, g.StepTimeSeconds, riders),
		})
	}
	return &reply{Embed: embed}
}

// renderMessage renders a titled flavour message
func renderMessage(title, message string, tone messaging.MessageTone) *reply {
	color := colorInfo
	if tone == messaging.ToneCelebration {
		color = colorWinner
	}
	return &reply{
		Embed: &discordgo.MessageEmbed{
			Title:       title,
			Description: message,
			Color:       color,
		},
	}
}

// horseIDFor resolves the horse number of login to its ID
func horseIDFor(state *models.Snapshot, login string, number int) (string, bool) {
	for _, p := range state.Players {
		if p.Login != login {
			continue
		}
		for _, h := range p.Horses {
			if h.Number == number {
				return h.HorseID, true
			}
		}
	}
	return "", false
}
