// Package vouch builds the Discord messages and forms of the vouch system.
package vouch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/vouchguard/vouchguard/internal/bot/constants"
	"github.com/vouchguard/vouchguard/internal/database/types"
	"github.com/vouchguard/vouchguard/internal/vouches"
)

const (
	vouchColor        = 0xF1C40F
	announcementColor = 0x00FF00

	filledStar  = ":star:"
	placeholder = ":white_small_square:"
)

// StarLine renders a five-slot visual rating: filled stars for the
// rating, placeholder glyphs for the remainder.
func StarLine(stars int) string {
	return strings.Repeat(filledStar, stars) + strings.Repeat(placeholder, vouches.MaxStars-stars)
}

// PromptMessage asks the voucher to start the vouch form for the seller.
func PromptMessage(voucher, seller discord.User) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent(fmt.Sprintf("%s wants to vouch for %s", voucher.Mention(), seller.Mention())).
		AddEmbeds(discord.NewEmbedBuilder().
			SetTitle("Vouch for Seller").
			SetDescription(fmt.Sprintf("Click the button below to vouch for %s", seller.Mention())).
			SetColor(vouchColor).
			Build()).
		AddActionRow(
			discord.NewPrimaryButton("Add Vouch",
				constants.TargetCustomID(constants.VouchStartPrefix, seller.ID)),
		).
		SetEphemeral(true).
		Build()
}

// Modal is the vouch form: star rating, product label, and message.
func Modal(sellerID snowflake.ID, marker string) discord.ModalCreate {
	return discord.NewModalCreateBuilder().
		SetCustomID(constants.TargetCustomID(constants.VouchModalPrefix, sellerID)).
		SetTitle("Vouch for Seller").
		AddActionRow(
			discord.NewTextInput(constants.StarsInputID, discord.TextInputStyleShort, "Star Rating (1-5)").
				WithPlaceholder("5").
				WithRequired(true),
		).
		AddActionRow(
			discord.NewTextInput(constants.ProductInputID, discord.TextInputStyleShort, "Product/Service").
				WithPlaceholder("What did you buy?").
				WithRequired(true),
		).
		AddActionRow(
			discord.NewTextInput(constants.MessageInputID, discord.TextInputStyleParagraph, "Vouch Message").
				WithPlaceholder(fmt.Sprintf("Describe your experience (must include %s)", marker)).
				WithRequired(true),
		).
		Build()
}

// Announcement is the public embed announcing a recorded vouch.
func Announcement(vouch *types.Vouch) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		AddEmbeds(discord.NewEmbedBuilder().
			SetTitle("New Vouch Received!").
			SetDescription(fmt.Sprintf("<@%d> has been vouched by <@%d>", vouch.SellerID, vouch.VoucherID)).
			AddField("Stars", StarLine(vouch.Stars), true).
			AddField("Product", vouch.Product, true).
			AddField("Message", vouch.Message, false).
			SetColor(announcementColor).
			SetTimestamp(vouch.CreatedAt).
			Build()).
		Build()
}

// SummaryMessage is the ephemeral reputation summary for a seller.
// An advisory warning is prepended when the seller is not recognized.
func SummaryMessage(seller discord.User, summary *vouches.Summary, recognized bool) discord.MessageCreate {
	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("%s's Vouches", seller.EffectiveName())).
		SetDescription(fmt.Sprintf("Total vouches: %d\nAverage rating: %s⭐",
			summary.Count, strconv.FormatFloat(summary.Average, 'f', 1, 64))).
		SetColor(vouchColor)

	for _, entry := range summary.Recent {
		embed.AddField(
			fmt.Sprintf("%d⭐ from %s", entry.Stars, entry.VoucherName),
			fmt.Sprintf("%s\n%s", entry.Product, entry.Message),
			false,
		)
	}

	builder := discord.NewMessageCreateBuilder().
		AddEmbeds(embed.Build()).
		SetEphemeral(true)

	if !recognized {
		builder.SetContent(fmt.Sprintf("Warning: %s is not a recognized seller.", seller.Mention()))
	}

	return builder.Build()
}
