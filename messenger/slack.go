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
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/format"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/slack-go/slack"
	"go.uber.org/ratelimit"
)

const (
	SlackAPILimit = 1 // 1 message/sec per channel
	SlackWindow   = 1 * time.Second
	SlackMinDelay = SlackWindow / SlackAPILimit
	SlackQueue    = "slack-queue"
)

var (
	ErrSlackEmptyAPIKey    = errors.New("empty Slack API key")
	ErrSlackEmptyUserIDs   = errors.New("empty list of Slack Chat IDs")
	ErrSlackSendingMessage = errors.New("error sending Slack message")

	SlackQueueName = []byte(SlackQueue)
)

// Slack messenger resends queued messages and then processes homework alerts from a channel, sending each as
// Markup message to all chat IDs. Undelivered messages are stored in the persistent queue.
func Slack(ctx context.Context, eDB db.Store, ch <-chan msgtypes.Message, token string, chatIDs []string,
	retries uint, opts ...slack.Option,
) error {
	if token == "" {
		return ErrSlackEmptyAPIKey
	}

	if len(chatIDs) == 0 {
		return ErrSlackEmptyUserIDs
	}

	api := slack.New(token, opts...)

	logger.Debug().Msg("Started Slack messenger")

	rl := ratelimit.New(SlackAPILimit, ratelimit.Per(SlackWindow))

	return processQueueAndChannel(ctx, eDB, SlackQueueName, ch, func(g msgtypes.Message) {
		processSlack(ctx, eDB, api, g, chatIDs, rl, retries)
	})
}

// processSlack sends a message to every chat ID, queueing it once if any send failed.
func processSlack(ctx context.Context, eDB db.Store, api *slack.Client, g msgtypes.Message, chatIDs []string,
	rl ratelimit.Limiter, retries uint,
) {
	m := format.MarkupMsg(g.Homework, g.IsTest())

	var failed bool

	// channels and nicknames are permitted
	for _, u := range chatIDs {
		rl.Take()

		// retryable and cancellable attempt to send a message
		err := retry.Do(
			func() error {
				_, _, err := api.PostMessageContext(ctx, u,
					slack.MsgOptionText(m, false),
					slack.MsgOptionAsUser(true),
				)

				return err
			},
			retry.Attempts(retries),
			retry.Context(ctx),
			retry.Delay(SlackMinDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			logger.Error().Msgf("%v: %v", ErrSlackSendingMessage, err)

			failed = true
		}
	}

	if failed {
		storeFailed(ctx, eDB, SlackQueueName, g)
	}
}
