// Package ticket builds the Discord messages of the ticket system.
package ticket

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"

	"github.com/vouchguard/vouchguard/internal/bot/constants"
)

const (
	setupColor   = 0x3498DB
	welcomeColor = 0x00FF00
)

// SetupMessage is the public entry point message with the ticket
// creation button, posted by the setup command.
func SetupMessage() discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		AddEmbeds(discord.NewEmbedBuilder().
			SetTitle("Support Tickets").
			SetDescription("Click the button below to create a support ticket").
			SetColor(setupColor).
			Build()).
		AddActionRow(
			discord.NewSuccessButton("Create Ticket", constants.CreateTicketButtonID),
		).
		Build()
}

// WelcomeMessage greets the ticket owner inside the new channel.
func WelcomeMessage(owner discord.User) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent(fmt.Sprintf("%s, support will be with you shortly.", owner.Mention())).
		AddEmbeds(discord.NewEmbedBuilder().
			SetTitle(fmt.Sprintf("Ticket for %s", owner.EffectiveName())).
			SetDescription("Support will be with you shortly.").
			SetColor(welcomeColor).
			Build()).
		Build()
}

// CloseControls is the in-channel message carrying the close button.
func CloseControls() discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent("Click the button below to close this ticket:").
		AddActionRow(
			discord.NewDangerButton("Close Ticket", constants.CloseTicketButtonID),
		).
		Build()
}
