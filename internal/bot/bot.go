package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	disgobot "github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	disgogateway "github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/json"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/audit"
	"github.com/vouchguard/vouchguard/internal/bot/constants"
	tickethandler "github.com/vouchguard/vouchguard/internal/bot/handlers/ticket"
	vouchhandler "github.com/vouchguard/vouchguard/internal/bot/handlers/vouch"
	"github.com/vouchguard/vouchguard/internal/discord/gateway"
	"github.com/vouchguard/vouchguard/internal/setup"
	"github.com/vouchguard/vouchguard/internal/tickets"
	"github.com/vouchguard/vouchguard/internal/vouches"
)

// Bot wires the Discord client to the ticket and vouch handlers.
type Bot struct {
	client  disgobot.Client
	logger  *zap.Logger
	tickets *tickethandler.Handler
	vouches *vouchhandler.Handler
}

// New initializes the Discord client and connects the lifecycle
// managers to it through explicitly constructed dependencies.
func New(app *setup.App) (*Bot, error) {
	b := &Bot{logger: app.Logger.Named("bot")}

	client, err := disgo.New(app.Config.Discord.Token,
		disgobot.WithGatewayConfigOpts(
			disgogateway.WithIntents(
				disgogateway.IntentGuilds,
				disgogateway.IntentGuildMessages,
			),
		),
		disgobot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommand,
			OnComponentInteraction:          b.handleComponent,
			OnModalSubmit:                   b.handleModalSubmit,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	gw := gateway.New(client.Rest(), app.Logger)
	auditLog := audit.New(client.Rest(), app.Config.Bot.AuditLogChannelName, app.Logger)

	ticketManager := tickets.NewManager(
		app.DB.Model().Ticket(), gw, app.Config.Bot.TicketCategoryName, app.Logger,
	)
	vouchManager := vouches.NewManager(
		app.DB.Model().Vouch(), gw,
		app.Config.Bot.RequiredTrustMarker, app.Config.Bot.TrustRoleName, app.Logger,
	)

	b.client = client
	b.tickets = tickethandler.New(ticketManager, auditLog, app.Logger)
	b.vouches = vouchhandler.New(vouchManager, auditLog, app.Logger)

	return b, nil
}

// Start registers the global commands and opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands")

	_, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commands())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")

	return b.client.OpenGateway(ctx)
}

// Close gracefully shuts down the Discord gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.client.Close(ctx)
}

func commands() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:                     constants.SetupCommandName,
			Description:              "Setup the ticket system",
			DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionManageGuild),
		},
		discord.SlashCommandCreate{
			Name:        constants.VouchCommandName,
			Description: "Vouch for a seller",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        constants.SellerOptionName,
					Description: "The seller you want to vouch for",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        constants.CloseCommandName,
			Description: "Close your ticket",
		},
		discord.SlashCommandCreate{
			Name:        constants.VouchInfoCommandName,
			Description: "Get info about a seller's vouches",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        constants.SellerOptionName,
					Description: "The seller to check",
					Required:    false,
				},
			},
		},
	}
}

// handleApplicationCommand dispatches slash commands. Each interaction
// runs in its own goroutine; panics are converted to a generic failure.
func (b *Bot) handleApplicationCommand(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		name := event.SlashCommandInteractionData().CommandName()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in command handler", zap.Any("panic", r))
				b.respondError(event)
			}

			b.logger.Debug("Command handled",
				zap.String("command", name),
				zap.Duration("duration", time.Since(start)))
		}()

		switch name {
		case constants.SetupCommandName:
			b.tickets.HandleSetup(event)
		case constants.CloseCommandName:
			b.tickets.HandleCloseCommand(event)
		case constants.VouchCommandName:
			b.vouches.HandleVouch(event)
		case constants.VouchInfoCommandName:
			b.vouches.HandleVouchInfo(event)
		default:
			b.respond(event, "This command is not available.")
		}
	}()
}

// handleComponent dispatches button clicks by custom ID. Exact IDs are
// matched first, then prefixed IDs carrying a target user.
func (b *Bot) handleComponent(event *events.ComponentInteractionCreate) {
	go func() {
		customID := event.Data.CustomID()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in component handler", zap.Any("panic", r))
				b.respondError(event)
			}

			b.logger.Debug("Component interaction handled",
				zap.String("custom_id", customID),
				zap.Duration("duration", time.Since(start)))
		}()

		switch customID {
		case constants.CreateTicketButtonID:
			b.tickets.HandleCreate(event)
			return
		case constants.CloseTicketButtonID:
			b.tickets.HandleCloseButton(event)
			return
		}

		prefix, target, ok := constants.ParseTargetCustomID(customID)
		if ok && prefix == constants.VouchStartPrefix {
			b.vouches.HandleStart(event, target)
			return
		}

		b.logger.Warn("Unknown component interaction", zap.String("custom_id", customID))
	}()
}

// handleModalSubmit dispatches form submissions by custom ID prefix.
func (b *Bot) handleModalSubmit(event *events.ModalSubmitInteractionCreate) {
	go func() {
		customID := event.Data.CustomID

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in modal handler", zap.Any("panic", r))
				b.respondError(event)
			}

			b.logger.Debug("Modal submit handled",
				zap.String("custom_id", customID),
				zap.Duration("duration", time.Since(start)))
		}()

		prefix, target, ok := constants.ParseTargetCustomID(customID)
		if ok && prefix == constants.VouchModalPrefix {
			b.vouches.HandleModal(event, target)
			return
		}

		b.logger.Warn("Unknown modal submission", zap.String("custom_id", customID))
	}()
}

// responder is the interaction reply surface shared by all event types.
type responder interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

func (b *Bot) respond(event responder, content string) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build())
	if err != nil {
		b.logger.Error("Failed to send response", zap.Error(err))
	}
}

// respondError sends a generic failure notice. If the interaction was
// already responded to, the send fails and is only logged.
func (b *Bot) respondError(event responder) {
	b.respond(event, "Internal error. Please try again later.")
}
