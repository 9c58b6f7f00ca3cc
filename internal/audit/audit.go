// Package audit posts best-effort action log lines to a named guild
// channel. A missing log channel is not an error; the line is dropped.
package audit

import (
	"context"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// Logger writes audit lines to the configured channel.
type Logger struct {
	rest        rest.Rest
	channelName string
	logger      *zap.Logger

	mu sync.Mutex
	// Resolved log channel per guild. Zero means the guild has no
	// channel with the configured name; the lookup is not repeated.
	channels map[snowflake.ID]snowflake.ID
}

// New creates an audit logger posting to the named channel.
func New(restClient rest.Rest, channelName string, logger *zap.Logger) *Logger {
	return &Logger{
		rest:        restClient,
		channelName: channelName,
		logger:      logger.Named("audit"),
		channels:    make(map[snowflake.ID]snowflake.ID),
	}
}

// Log posts an action line to the guild's audit channel. Failures are
// logged and swallowed; auditing never fails the triggering interaction.
func (l *Logger) Log(ctx context.Context, guildID snowflake.ID, line string) {
	channelID, err := l.resolve(ctx, guildID)
	if err != nil {
		l.logger.Warn("Failed to resolve audit channel",
			zap.Uint64("guild_id", uint64(guildID)),
			zap.Error(err))

		return
	}

	if channelID == 0 {
		l.logger.Debug("Guild has no audit channel, skipping",
			zap.Uint64("guild_id", uint64(guildID)))

		return
	}

	_, err = l.rest.CreateMessage(channelID, discord.NewMessageCreateBuilder().
		SetContent(line).
		Build(), rest.WithCtx(ctx))
	if err != nil {
		l.logger.Warn("Failed to post audit line",
			zap.Uint64("channel_id", uint64(channelID)),
			zap.Error(err))
	}
}

func (l *Logger) resolve(ctx context.Context, guildID snowflake.ID) (snowflake.ID, error) {
	l.mu.Lock()
	if id, ok := l.channels[guildID]; ok {
		l.mu.Unlock()
		return id, nil
	}
	l.mu.Unlock()

	channels, err := l.rest.GetGuildChannels(guildID, rest.WithCtx(ctx))
	if err != nil {
		return 0, err
	}

	var channelID snowflake.ID

	for _, channel := range channels {
		if channel.Type() == discord.ChannelTypeGuildText && channel.Name() == l.channelName {
			channelID = channel.ID()
			break
		}
	}

	l.mu.Lock()
	l.channels[guildID] = channelID
	l.mu.Unlock()

	return channelID, nil
}
