// Package gateway wraps the Discord REST API behind the narrow
// interfaces the lifecycle managers consume. Names configured for the
// ticket category and trust role are resolved once per guild and the
// resolved IDs cached thereafter.
package gateway

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/vouchguard/vouchguard/internal/tickets"
	"github.com/vouchguard/vouchguard/internal/vouches"
)

// trustRoleColor is the color applied when the trust role is first created.
const trustRoleColor = 0xF1C40F

// Client implements the managers' gateway interfaces over the REST API.
type Client struct {
	rest   rest.Rest
	logger *zap.Logger

	mu         sync.Mutex
	categories map[cacheKey]snowflake.ID
	roles      map[cacheKey]snowflake.ID
}

type cacheKey struct {
	guildID snowflake.ID
	name    string
}

// Compile-time checks that Client satisfies both manager interfaces.
var (
	_ tickets.Gateway = (*Client)(nil)
	_ vouches.Gateway = (*Client)(nil)
)

// New creates a gateway client over the given REST API.
func New(restClient rest.Rest, logger *zap.Logger) *Client {
	return &Client{
		rest:       restClient,
		logger:     logger.Named("gateway"),
		categories: make(map[cacheKey]snowflake.ID),
		roles:      make(map[cacheKey]snowflake.ID),
	}
}

// EnsureCategory resolves the named channel category in the guild,
// creating it if absent. The resolved ID is cached per (guild, name).
func (c *Client) EnsureCategory(
	ctx context.Context, guildID snowflake.ID, name string,
) (snowflake.ID, error) {
	key := cacheKey{guildID: guildID, name: name}

	c.mu.Lock()
	if id, ok := c.categories[key]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	channels, err := c.rest.GetGuildChannels(guildID, rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to list guild channels: %w", err)
	}

	var categoryID snowflake.ID

	for _, channel := range channels {
		if channel.Type() == discord.ChannelTypeGuildCategory && channel.Name() == name {
			categoryID = channel.ID()
			break
		}
	}

	if categoryID == 0 {
		created, err := c.rest.CreateGuildChannel(guildID, discord.GuildCategoryChannelCreate{
			Name: name,
		}, rest.WithCtx(ctx))
		if err != nil {
			return 0, fmt.Errorf("failed to create category %q: %w", name, err)
		}

		categoryID = created.ID()

		c.logger.Info("Created ticket category",
			zap.Uint64("guild_id", uint64(guildID)),
			zap.String("name", name))
	}

	c.mu.Lock()
	c.categories[key] = categoryID
	c.mu.Unlock()

	return categoryID, nil
}

// CreateTicketChannel creates a text channel under the category that is
// hidden from @everyone and visible to the ticket owner.
func (c *Client) CreateTicketChannel(
	ctx context.Context, guildID, parentID, ownerID snowflake.ID, name string,
) (snowflake.ID, error) {
	channel, err := c.rest.CreateGuildChannel(guildID, discord.GuildTextChannelCreate{
		Name:     name,
		ParentID: parentID,
		PermissionOverwrites: []discord.PermissionOverwrite{
			discord.RolePermissionOverwrite{
				// The @everyone role shares the guild's ID.
				RoleID: guildID,
				Deny:   discord.PermissionViewChannel,
			},
			discord.MemberPermissionOverwrite{
				UserID: ownerID,
				Allow: discord.PermissionViewChannel |
					discord.PermissionSendMessages |
					discord.PermissionReadMessageHistory,
			},
		},
	}, rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to create ticket channel: %w", err)
	}

	return channel.ID(), nil
}

// DeleteChannel removes a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID snowflake.ID) error {
	if err := c.rest.DeleteChannel(channelID, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	return nil
}

// EnsureRole resolves the named role in the guild, creating it if
// absent. Lookup is by name, so two concurrent creators may race; the
// duplicate create is tolerated since later lookups resolve by name.
func (c *Client) EnsureRole(
	ctx context.Context, guildID snowflake.ID, name string,
) (snowflake.ID, error) {
	key := cacheKey{guildID: guildID, name: name}

	c.mu.Lock()
	if id, ok := c.roles[key]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	guildRoles, err := c.rest.GetRoles(guildID, rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to list guild roles: %w", err)
	}

	var roleID snowflake.ID

	for _, role := range guildRoles {
		if role.Name == name {
			roleID = role.ID
			break
		}
	}

	if roleID == 0 {
		created, err := c.rest.CreateRole(guildID, discord.RoleCreate{
			Name:  name,
			Color: trustRoleColor,
		}, rest.WithCtx(ctx))
		if err != nil {
			return 0, fmt.Errorf("failed to create role %q: %w", name, err)
		}

		roleID = created.ID

		c.logger.Info("Created trust role",
			zap.Uint64("guild_id", uint64(guildID)),
			zap.String("name", name))
	}

	c.mu.Lock()
	c.roles[key] = roleID
	c.mu.Unlock()

	return roleID, nil
}

// MemberHasRole reports whether the guild member holds the role.
func (c *Client) MemberHasRole(
	ctx context.Context, guildID, userID, roleID snowflake.ID,
) (bool, error) {
	member, err := c.rest.GetMember(guildID, userID, rest.WithCtx(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch member: %w", err)
	}

	return slices.Contains(member.RoleIDs, roleID), nil
}

// UserDisplayName resolves a user's display name.
func (c *Client) UserDisplayName(ctx context.Context, userID snowflake.ID) (string, error) {
	user, err := c.rest.GetUser(userID, rest.WithCtx(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch user: %w", err)
	}

	return user.EffectiveName(), nil
}
