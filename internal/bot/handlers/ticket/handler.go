package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/audit"
	ticketview "github.com/vouchguard/vouchguard/internal/bot/views/ticket"
	"github.com/vouchguard/vouchguard/internal/tickets"
)

// closeEvent extracts what the close flow needs from the slash command
// and button event types so both share one code path.
type closeEvent interface {
	Client() bot.Client
	GuildID() *snowflake.ID
	ChannelID() snowflake.ID
	User() discord.User
	Member() *discord.ResolvedMember
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

var (
	_ closeEvent = (*events.ApplicationCommandInteractionCreate)(nil)
	_ closeEvent = (*events.ComponentInteractionCreate)(nil)
)

// Handler routes ticket interactions to the lifecycle manager.
type Handler struct {
	manager *tickets.Manager
	audit   *audit.Logger
	logger  *zap.Logger
}

// New creates a ticket interaction handler.
func New(manager *tickets.Manager, auditLog *audit.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		manager: manager,
		audit:   auditLog,
		logger:  logger.Named("ticket_handler"),
	}
}

// HandleSetup publishes the ticket creation entry point.
// Requires the Manage Server permission.
func (h *Handler) HandleSetup(event *events.ApplicationCommandInteractionCreate) {
	member := event.Member()
	if member == nil || !member.Permissions.Has(discord.PermissionManageGuild) {
		h.reply(event, `You need the "Manage Server" permission to use this command.`, true)
		return
	}

	if err := event.CreateMessage(ticketview.SetupMessage()); err != nil {
		h.logger.Error("Failed to send setup message", zap.Error(err))
	}
}

// HandleCreate processes a click on the ticket creation button.
func (h *Handler) HandleCreate(event *events.ComponentInteractionCreate) {
	guildID := event.GuildID()
	if guildID == nil {
		h.reply(event, "Tickets can only be created in a server.", true)
		return
	}

	ctx := context.Background()
	user := event.User()

	result, err := h.manager.Open(ctx, *guildID, user.ID, user.Username)
	if err != nil {
		h.logger.Error("Failed to open ticket", zap.Error(err))
		h.reply(event, "Something went wrong while creating your ticket. Please try again.", true)

		return
	}

	if result.Existing {
		h.reply(event, fmt.Sprintf("You already have an open ticket: <#%s>", result.ChannelID), true)
		return
	}

	// The welcome and close controls are best-effort; the ticket exists
	// either way and the owner gets the confirmation below.
	restClient := event.Client().Rest()

	if _, err := restClient.CreateMessage(result.ChannelID, ticketview.WelcomeMessage(user), rest.WithCtx(ctx)); err != nil {
		h.logger.Error("Failed to send ticket welcome", zap.Error(err))
	}

	if _, err := restClient.CreateMessage(result.ChannelID, ticketview.CloseControls(), rest.WithCtx(ctx)); err != nil {
		h.logger.Error("Failed to send ticket close controls", zap.Error(err))
	}

	h.reply(event, fmt.Sprintf("Your ticket has been created: <#%s>", result.ChannelID), true)

	h.audit.Log(ctx, *guildID,
		fmt.Sprintf("Ticket created by %s (<#%s>)", user.Username, result.ChannelID))
}

// HandleCloseCommand processes the close slash command.
func (h *Handler) HandleCloseCommand(event *events.ApplicationCommandInteractionCreate) {
	h.handleClose(event)
}

// HandleCloseButton processes a click on the in-channel close button.
func (h *Handler) HandleCloseButton(event *events.ComponentInteractionCreate) {
	h.handleClose(event)
}

func (h *Handler) handleClose(event closeEvent) {
	ctx := context.Background()
	user := event.User()
	channelID := event.ChannelID()

	member := event.Member()
	staff := member != nil && member.Permissions.Has(discord.PermissionManageMessages)

	_, err := h.manager.Close(ctx, channelID, user.ID, staff)

	switch {
	case errors.Is(err, tickets.ErrNoActiveTicket):
		h.reply(event, "This is not an active ticket channel.", true)
		return
	case errors.Is(err, tickets.ErrNotAuthorized):
		h.reply(event, "Only staff or the ticket creator can close tickets.", true)
		return
	case err != nil:
		h.logger.Error("Failed to close ticket", zap.Error(err))
		h.reply(event, "Something went wrong while closing this ticket. Please try again.", true)

		return
	}

	// Public in the ticket channel; the channel disappears after the delay.
	h.reply(event, "Closing this ticket in 5 seconds...", false)

	if guildID := event.GuildID(); guildID != nil {
		h.audit.Log(ctx, *guildID,
			fmt.Sprintf("Ticket closed by %s (<#%s>)", user.Username, channelID))
	}
}

func (h *Handler) reply(event closeEvent, content string, ephemeral bool) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(ephemeral).
		Build())
	if err != nil {
		h.logger.Error("Failed to send reply", zap.Error(err))
	}
}
