package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/vouchguard/vouchguard/internal/database/types"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Create tables
		models := []any{
			(*types.Ticket)(nil),
			(*types.Vouch)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}

		// A partial unique index enforces at most one open ticket
		// per user per guild even if two create requests race.
		_, err := db.NewRaw(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_open_per_user
			ON tickets (user_id, guild_id)
			WHERE closed = false
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create open ticket index: %w", err)
		}

		_, err = db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_tickets_open_channel
			ON tickets (channel_id)
			WHERE closed = false
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create ticket channel index: %w", err)
		}

		_, err = db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_vouches_seller
			ON vouches (seller_id, guild_id)
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create vouch seller index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP TABLE IF EXISTS vouches;
			DROP TABLE IF EXISTS tickets;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}

		return nil
	})
}
