// @license
// Copyright (C) 2022  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bwmarrin/discordgo"
	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/format"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"go.uber.org/ratelimit"
)

const (
	DiscordAPILimit       = 10 // 10 API req/min per user/IP
	DiscordWindow         = 1 * time.Minute
	DiscordMinDelay       = DiscordWindow / DiscordAPILimit
	DiscordMaxTitle       = 256
	DiscordMaxDescription = 4096
	DiscordMaxFieldValue  = 1024
	DiscordMaxFields      = 25
	DiscordQueue          = "discord-queue"
)

var (
	ErrDiscordEmptyAPIKey     = errors.New("empty Discord API key")
	ErrDiscordEmptyUserIDs    = errors.New("empty list of Discord User IDs")
	ErrDiscordCreatingSession = errors.New("error creating Discord session")
	ErrDiscordCreatingChannel = errors.New("error creating Discord channel")
	ErrDiscordSendingMessage  = errors.New("error sending Discord message")

	DiscordQueueName = []byte(DiscordQueue)
)

// Discord messenger resends queued messages and then processes homework alerts from a channel, sending each as
// a rich embed through private channels to all user IDs. Undelivered messages are stored in the persistent queue.
func Discord(ctx context.Context, eDB db.Store, ch <-chan msgtypes.Message, token string, userIDs []string,
	retries uint,
) error {
	if token == "" {
		return ErrDiscordEmptyAPIKey
	}

	if len(userIDs) == 0 {
		return ErrDiscordEmptyUserIDs
	}

	cli, err := discordInit(token)
	if err != nil {
		return err
	}
	defer cli.Close()

	logger.Debug().Msg("Started Discord messenger")

	rl := ratelimit.New(DiscordAPILimit, ratelimit.Per(DiscordWindow))

	return processQueueAndChannel(ctx, eDB, DiscordQueueName, ch, func(g msgtypes.Message) {
		processDiscord(ctx, eDB, cli, g, userIDs, rl, retries)
	})
}

// discordEmbed formats a message as rich embed with task in description and materials as fields.
func discordEmbed(g msgtypes.Message) *discordgo.MessageEmbed {
	sb := strings.Builder{}
	format.PlainFormatSubject(&sb, g.Homework, g.IsTest())

	fields := make([]*discordgo.MessageEmbedField, 0, len(g.Homework.TestURLs))

	for i, urls := range g.Homework.TestURLs {
		if len(fields) == DiscordMaxFields || len(urls) == 0 {
			break
		}

		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Материал %d", i+1),
			Value: truncateWithEllipsis(strings.Join(urls, "\n"), DiscordMaxFieldValue),
		})
	}

	return &discordgo.MessageEmbed{
		Title:       truncateWithEllipsis(sb.String(), DiscordMaxTitle),
		Description: truncateWithEllipsis(format.CleanText(g.Homework.Task), DiscordMaxDescription),
		Fields:      fields,
	}
}

// processDiscord sends a message to every user ID over a private channel, queueing it once if any send failed.
func processDiscord(ctx context.Context, eDB db.Store, cli *discordgo.Session, g msgtypes.Message,
	userIDs []string, rl ratelimit.Limiter, retries uint,
) {
	msg := discordEmbed(g)

	var failed bool

	for _, u := range userIDs {
		rl.Take()

		// create a new user/private channel if needed
		c, err := cli.UserChannelCreate(u,
			discordgo.WithContext(ctx),
			discordgo.WithRetryOnRatelimit(true),
			discordgo.WithRestRetries(1))
		if err != nil {
			logger.Error().Msgf("%v: %v", ErrDiscordCreatingChannel, err)

			failed = true

			continue
		}

		// retryable and cancellable attempt to send a message
		err = retry.Do(
			func() error {
				_, err := cli.ChannelMessageSendEmbed(c.ID, msg,
					discordgo.WithContext(ctx),
					discordgo.WithRetryOnRatelimit(true),
					discordgo.WithRestRetries(1))

				return err
			},
			retry.Attempts(retries),
			retry.Context(ctx),
			retry.Delay(DiscordMinDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			logger.Error().Msgf("%v: %v", ErrDiscordSendingMessage, err)

			failed = true
		}
	}

	if failed {
		storeFailed(ctx, eDB, DiscordQueueName, g)
	}
}

// discordInit creates a Discord session and opens its websocket.
func discordInit(token string) (*discordgo.Session, error) {
	cli, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscordCreatingSession, err)
	}

	cli.ShouldReconnectOnError = true
	cli.ShouldRetryOnRateLimit = true
	cli.MaxRestRetries = 1

	if err = cli.Open(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscordCreatingSession, err)
	}

	return cli, nil
}
