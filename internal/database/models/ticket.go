package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/database/dbretry"
	"github.com/vouchguard/vouchguard/internal/database/types"
)

// TicketModel handles database operations for support tickets.
type TicketModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewTicket creates a new TicketModel instance.
func NewTicket(db *bun.DB, logger *zap.Logger) *TicketModel {
	return &TicketModel{
		db:     db,
		logger: logger.Named("db_ticket"),
	}
}

// Create inserts a new ticket record.
func (m *TicketModel) Create(ctx context.Context, ticket *types.Ticket) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(ticket).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}

		return nil
	})
}

// ActiveByUser returns the open ticket for a user in a guild, or nil if none exists.
func (m *TicketModel) ActiveByUser(ctx context.Context, userID, guildID uint64) (*types.Ticket, error) {
	return m.activeTicket(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("guild_id = ?", guildID)
	})
}

// ActiveByChannel returns the open ticket bound to a channel, or nil if none exists.
func (m *TicketModel) ActiveByChannel(ctx context.Context, channelID uint64) (*types.Ticket, error) {
	return m.activeTicket(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("channel_id = ?", channelID)
	})
}

// CloseActive marks the open ticket for a channel as closed.
// The update is conditional on the ticket still being open so that two
// racing close requests result in at most one successful transition.
// Returns true if this call performed the transition.
func (m *TicketModel) CloseActive(ctx context.Context, channelID uint64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.Ticket)(nil)).
			Set("closed = true").
			Where("channel_id = ?", channelID).
			Where("closed = false").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to close ticket: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

func (m *TicketModel) activeTicket(
	ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery,
) (*types.Ticket, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Ticket, error) {
		var ticket types.Ticket

		err := apply(m.db.NewSelect().Model(&ticket)).
			Where("closed = false").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}

			return nil, fmt.Errorf("failed to get active ticket: %w", err)
		}

		return &ticket, nil
	})
}
