package types

import "time"

// Vouch represents a single peer rating for a seller.
// Vouches are append-only; they are never mutated or deleted.
type Vouch struct {
	ID        int64     `bun:",pk,autoincrement"`
	SellerID  uint64    `bun:",notnull"` // Discord ID of the rated seller
	VoucherID uint64    `bun:",notnull"` // Discord ID of the rater
	GuildID   uint64    `bun:",notnull"`
	Stars     int       `bun:",notnull"` // 1-5 inclusive
	Product   string    `bun:",type:text"`
	Message   string    `bun:",type:text"`
	CreatedAt time.Time `bun:",notnull,default:current_timestamp"`
}
