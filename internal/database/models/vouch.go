package models

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/database/dbretry"
	"github.com/vouchguard/vouchguard/internal/database/types"
)

// VouchModel handles database operations for seller vouches.
type VouchModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVouch creates a new VouchModel instance.
func NewVouch(db *bun.DB, logger *zap.Logger) *VouchModel {
	return &VouchModel{
		db:     db,
		logger: logger.Named("db_vouch"),
	}
}

// Create inserts a new vouch record.
func (m *VouchModel) Create(ctx context.Context, vouch *types.Vouch) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(vouch).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create vouch: %w", err)
		}

		return nil
	})
}

// BySeller returns all vouches for a seller in a guild, most recent first.
func (m *VouchModel) BySeller(ctx context.Context, sellerID, guildID uint64) ([]*types.Vouch, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Vouch, error) {
		var vouches []*types.Vouch

		err := m.db.NewSelect().
			Model(&vouches).
			Where("seller_id = ?", sellerID).
			Where("guild_id = ?", guildID).
			Order("id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get vouches for seller: %w", err)
		}

		return vouches, nil
	})
}
