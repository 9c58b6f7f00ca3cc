package vouch

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
	"github.com/vouchguard/vouchguard/internal/bot/constants"
	vouchview "github.com/vouchguard/vouchguard/internal/bot/views/vouch"
	"github.com/vouchguard/vouchguard/internal/vouches"
)

// replyEvent extracts the reply surface shared by all interaction
// event types this handler deals with.
type replyEvent interface {
	Client() bot.Client
	GuildID() *snowflake.ID
	User() discord.User
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

var (
	_ replyEvent = (*events.ApplicationCommandInteractionCreate)(nil)
	_ replyEvent = (*events.ComponentInteractionCreate)(nil)
	_ replyEvent = (*events.ModalSubmitInteractionCreate)(nil)
)

// Handler routes vouch interactions to the lifecycle manager.
type Handler struct {
	manager *vouches.Manager
	audit   *audit.Logger
	logger  *zap.Logger
}

// New creates a vouch interaction handler.
func New(manager *vouches.Manager, auditLog *audit.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		manager: manager,
		audit:   auditLog,
		logger:  logger.Named("vouch_handler"),
	}
}

// HandleVouch processes the vouch slash command by offering the vouch
// button for the targeted seller. Self-targets are rejected outright.
func (h *Handler) HandleVouch(event *events.ApplicationCommandInteractionCreate) {
	seller, ok := event.SlashCommandInteractionData().OptUser(constants.SellerOptionName)
	if !ok {
		h.reply(event, "You must pick a seller to vouch for.", true)
		return
	}

	if err := h.manager.Start(event.User().ID, seller.ID); err != nil {
		h.reply(event, "You can't vouch for yourself!", true)
		return
	}

	if err := event.CreateMessage(vouchview.PromptMessage(event.User(), seller)); err != nil {
		h.logger.Error("Failed to send vouch prompt", zap.Error(err))
	}
}

// HandleStart opens the vouch form when the vouch button is clicked.
func (h *Handler) HandleStart(event *events.ComponentInteractionCreate, sellerID snowflake.ID) {
	if err := h.manager.Start(event.User().ID, sellerID); err != nil {
		h.reply(event, "You can't vouch for yourself!", true)
		return
	}

	if err := event.Modal(vouchview.Modal(sellerID, h.manager.Marker())); err != nil {
		h.logger.Error("Failed to show vouch modal", zap.Error(err))
	}
}

// HandleModal validates and records a submitted vouch form, then
// announces it publicly. The announcement only goes out after the vouch
// is persisted.
func (h *Handler) HandleModal(event *events.ModalSubmitInteractionCreate, sellerID snowflake.ID) {
	guildID := event.GuildID()
	if guildID == nil {
		h.reply(event, "Vouches can only be submitted in a server.", true)
		return
	}

	ctx := context.Background()
	data := event.Data

	receipt, err := h.manager.Submit(ctx, vouches.Submission{
		GuildID:   *guildID,
		SellerID:  sellerID,
		VoucherID: event.User().ID,
		StarsRaw:  data.Text(constants.StarsInputID),
		Product:   data.Text(constants.ProductInputID),
		Message:   data.Text(constants.MessageInputID),
	})

	switch {
	case errors.Is(err, vouches.ErrMarkerMissing):
		h.reply(event, fmt.Sprintf("Your vouch must include %q to be valid.", h.manager.Marker()), true)
		return
	case errors.Is(err, vouches.ErrInvalidStars):
		h.reply(event, "Please enter a valid star rating between 1 and 5.", true)
		return
	case errors.Is(err, vouches.ErrSelfVouch):
		h.reply(event, "You can't vouch for yourself!", true)
		return
	case err != nil:
		h.logger.Error("Failed to record vouch", zap.Error(err))
		h.reply(event, "Something went wrong while recording your vouch. Please try again.", true)

		return
	}

	confirmation := fmt.Sprintf("Thank you for vouching for <@%s>!", sellerID)
	if !receipt.SellerRecognized {
		confirmation += fmt.Sprintf("\nWarning: <@%s> is not a recognized seller.", sellerID)
	}

	h.reply(event, confirmation, true)

	// Public announcement in the originating channel
	_, err = event.Client().Rest().CreateMessage(
		event.ChannelID(), vouchview.Announcement(receipt.Vouch), rest.WithCtx(ctx),
	)
	if err != nil {
		h.logger.Error("Failed to announce vouch", zap.Error(err))
	}

	h.audit.Log(ctx, *guildID,
		fmt.Sprintf("New vouch for <@%s> by %s", sellerID, event.User().Username))
}

// HandleVouchInfo processes the vouchinfo slash command, defaulting to
// the invoking user when no seller is given.
func (h *Handler) HandleVouchInfo(event *events.ApplicationCommandInteractionCreate) {
	guildID := event.GuildID()
	if guildID == nil {
		h.reply(event, "Vouch info is only available in a server.", true)
		return
	}

	seller, ok := event.SlashCommandInteractionData().OptUser(constants.SellerOptionName)
	if !ok {
		seller = event.User()
	}

	ctx := context.Background()

	summary, err := h.manager.Summary(ctx, *guildID, seller.ID)
	if err != nil {
		h.logger.Error("Failed to fetch vouch summary", zap.Error(err))
		h.reply(event, "Something went wrong while fetching vouch info. Please try again.", true)

		return
	}

	if summary.Count == 0 {
		h.reply(event, fmt.Sprintf("%s has no vouches yet.", seller.Mention()), true)
		return
	}

	recognized := h.manager.SellerRecognized(ctx, *guildID, seller.ID)

	if err := event.CreateMessage(vouchview.SummaryMessage(seller, summary, recognized)); err != nil {
		h.logger.Error("Failed to send vouch summary", zap.Error(err))
	}
}

func (h *Handler) reply(event replyEvent, content string, ephemeral bool) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(ephemeral).
		Build())
	if err != nil {
		h.logger.Error("Failed to send reply", zap.Error(err))
	}
}
