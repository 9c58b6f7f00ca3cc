package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/database/types"
)

// CloseDelay is how long the closing notice stays visible before the
// ticket channel is removed. The deletion is fire-and-forget; a process
// restart inside the window loses it, but the record is already closed.
const CloseDelay = 5 * time.Second

var (
	// ErrNoActiveTicket indicates the channel has no open ticket.
	ErrNoActiveTicket = errors.New("no active ticket for this channel")
	// ErrNotAuthorized indicates the requester is neither the ticket
	// owner nor staff.
	ErrNotAuthorized = errors.New("not authorized to close this ticket")
)

// Store persists ticket records.
type Store interface {
	// Create inserts a new ticket record.
	Create(ctx context.Context, ticket *types.Ticket) error
	// ActiveByUser returns the open ticket for a user in a guild, or nil.
	ActiveByUser(ctx context.Context, userID, guildID uint64) (*types.Ticket, error)
	// ActiveByChannel returns the open ticket bound to a channel, or nil.
	ActiveByChannel(ctx context.Context, channelID uint64) (*types.Ticket, error)
	// CloseActive conditionally marks the channel's open ticket as closed.
	// Returns false when the ticket was already closed by a racing request.
	CloseActive(ctx context.Context, channelID uint64) (bool, error)
}

// Gateway exposes the channel operations the manager needs from Discord.
type Gateway interface {
	// EnsureCategory resolves the named channel category, creating it if absent.
	EnsureCategory(ctx context.Context, guildID snowflake.ID, name string) (snowflake.ID, error)
	// CreateTicketChannel creates a text channel visible only to the owner.
	CreateTicketChannel(
		ctx context.Context, guildID, parentID, ownerID snowflake.ID, name string,
	) (snowflake.ID, error)
	// DeleteChannel removes a channel.
	DeleteChannel(ctx context.Context, channelID snowflake.ID) error
}

// Manager enforces the ticket lifecycle rules: one open ticket per user
// per guild, owner-or-staff close, delayed channel deletion.
type Manager struct {
	store        Store
	gateway      Gateway
	logger       *zap.Logger
	categoryName string
	closeDelay   time.Duration
	schedule     func(time.Duration, func())
}

// NewManager creates a ticket lifecycle manager.
func NewManager(store Store, gateway Gateway, categoryName string, logger *zap.Logger) *Manager {
	return &Manager{
		store:        store,
		gateway:      gateway,
		logger:       logger.Named("tickets"),
		categoryName: categoryName,
		closeDelay:   CloseDelay,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// OpenResult describes the outcome of an Open request.
type OpenResult struct {
	ChannelID snowflake.ID
	// Existing is true when the user already had an open ticket;
	// ChannelID then refers to that ticket's channel.
	Existing bool
}

// Open creates a ticket channel and record for the user unless they
// already have an open ticket in the guild, in which case the existing
// channel is returned instead. The channel is created before the record
// is persisted so a failed channel create never leaves a record behind.
func (m *Manager) Open(
	ctx context.Context, guildID, userID snowflake.ID, username string,
) (*OpenResult, error) {
	existing, err := m.store.ActiveByUser(ctx, uint64(userID), uint64(guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing ticket: %w", err)
	}

	if existing != nil {
		return &OpenResult{ChannelID: snowflake.ID(existing.ChannelID), Existing: true}, nil
	}

	categoryID, err := m.gateway.EnsureCategory(ctx, guildID, m.categoryName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ticket category: %w", err)
	}

	channelID, err := m.gateway.CreateTicketChannel(
		ctx, guildID, categoryID, userID, "ticket-"+strings.ToLower(username),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket channel: %w", err)
	}

	ticket := &types.Ticket{
		UserID:    uint64(userID),
		ChannelID: uint64(channelID),
		GuildID:   uint64(guildID),
		CreatedAt: time.Now(),
	}
	if err := m.store.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to persist ticket: %w", err)
	}

	m.logger.Info("Ticket opened",
		zap.Uint64("user_id", uint64(userID)),
		zap.Uint64("channel_id", uint64(channelID)),
		zap.Uint64("guild_id", uint64(guildID)))

	return &OpenResult{ChannelID: channelID}, nil
}

// CloseResult describes a successful Close transition.
type CloseResult struct {
	// OwnerID is the user the closed ticket belonged to.
	OwnerID snowflake.ID
}

// Close marks the channel's open ticket as closed and schedules the
// channel's deletion. Only the ticket owner or a staff member may close;
// a racing second close loses and is reported as ErrNoActiveTicket.
func (m *Manager) Close(
	ctx context.Context, channelID, requesterID snowflake.ID, staff bool,
) (*CloseResult, error) {
	ticket, err := m.store.ActiveByChannel(ctx, uint64(channelID))
	if err != nil {
		return nil, fmt.Errorf("failed to look up ticket: %w", err)
	}

	if ticket == nil {
		return nil, ErrNoActiveTicket
	}

	if !staff && uint64(requesterID) != ticket.UserID {
		return nil, ErrNotAuthorized
	}

	closed, err := m.store.CloseActive(ctx, uint64(channelID))
	if err != nil {
		return nil, fmt.Errorf("failed to close ticket: %w", err)
	}

	if !closed {
		// Another close request won the race.
		return nil, ErrNoActiveTicket
	}

	m.logger.Info("Ticket closed",
		zap.Uint64("channel_id", uint64(channelID)),
		zap.Uint64("closed_by", uint64(requesterID)))

	m.schedule(m.closeDelay, func() {
		if err := m.gateway.DeleteChannel(context.Background(), channelID); err != nil {
			m.logger.Warn("Failed to delete ticket channel",
				zap.Uint64("channel_id", uint64(channelID)),
				zap.Error(err))
		}
	})

	return &CloseResult{OwnerID: snowflake.ID(ticket.UserID)}, nil
}
