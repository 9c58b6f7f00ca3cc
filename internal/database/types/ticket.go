package types

import "time"

// Ticket represents a support ticket and its dedicated channel.
// Records are kept forever for history; closing a ticket only flips
// the Closed flag before the channel itself is removed.
type Ticket struct {
	ID        int64     `bun:",pk,autoincrement"`
	UserID    uint64    `bun:",notnull"` // Discord ID of the requester
	ChannelID uint64    `bun:",notnull"` // Dedicated ticket channel
	GuildID   uint64    `bun:",notnull"` // Guild the ticket belongs to
	Closed    bool      `bun:",notnull,default:false"`
	CreatedAt time.Time `bun:",notnull,default:current_timestamp"`
}
