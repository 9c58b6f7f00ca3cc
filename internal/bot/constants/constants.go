package constants

import (
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// Slash command names.
const (
	SetupCommandName     = "setup"
	VouchCommandName     = "vouch"
	CloseCommandName     = "close"
	VouchInfoCommandName = "vouchinfo"

	SellerOptionName = "seller"
)

// Component custom IDs.
const (
	CreateTicketButtonID = "create_ticket"
	CloseTicketButtonID  = "close_ticket"

	// VouchStartPrefix and VouchModalPrefix carry the seller's ID after
	// the separator so the target survives the button/modal round trip.
	VouchStartPrefix = "vouch_start"
	VouchModalPrefix = "vouch_modal"
)

// Modal text input custom IDs.
const (
	StarsInputID   = "stars"
	ProductInputID = "product"
	MessageInputID = "message"
)

const customIDSeparator = ":"

// TargetCustomID encodes a target user ID into a component custom ID.
func TargetCustomID(prefix string, target snowflake.ID) string {
	return prefix + customIDSeparator + target.String()
}

// ParseTargetCustomID splits a component custom ID into its prefix and
// target user ID. ok is false when the ID carries no parsable target.
func ParseTargetCustomID(customID string) (prefix string, target snowflake.ID, ok bool) {
	prefix, raw, found := strings.Cut(customID, customIDSeparator)
	if !found {
		return prefix, 0, false
	}

	target, err := snowflake.Parse(raw)
	if err != nil {
		return prefix, 0, false
	}

	return prefix, target, true
}
