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
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/format"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/ratelimit"
)

const (
	TelegramAPILimit = 20 // 20 API req/min per user
	TelegramWindow   = 1 * time.Minute
	TelegramMinDelay = TelegramWindow / TelegramAPILimit
	TelegramMaxText  = 4096 // message text limit in UTF-8 characters
	TelegramQueue    = "telegram-queue"
)

var (
	ErrTelegramSession        = errors.New("error creating Telegram session")
	ErrTelegramEmptyAPIKey    = errors.New("empty Telegram API key")
	ErrTelegramEmptyUserIDs   = errors.New("empty list of Telegram Chat IDs")
	ErrTelegramInvalidChatID  = errors.New("invalid Telegram Chat ID")
	ErrTelegramSendingMessage = errors.New("error sending Telegram message")

	TelegramQueueName = []byte(TelegramQueue)
)

// Telegram messenger resends queued messages and then processes homework alerts from a channel, sending each as
// HTML message to all chat IDs. Undelivered messages are stored in the persistent queue.
func Telegram(ctx context.Context, eDB db.Store, ch <-chan msgtypes.Message, apiKey string, chatIDs []string,
	retries uint, opts ...bot.Option,
) error {
	if apiKey == "" {
		return ErrTelegramEmptyAPIKey
	}

	ids, err := telegramChatIDs(chatIDs)
	if err != nil {
		return err
	}

	cli, err := telegramInit(apiKey, opts...)
	if err != nil {
		return err
	}

	logger.Debug().Msg("Started Telegram messenger")

	rl := ratelimit.New(TelegramAPILimit, ratelimit.Per(TelegramWindow))

	return processQueueAndChannel(ctx, eDB, TelegramQueueName, ch, func(g msgtypes.Message) {
		processTelegram(ctx, eDB, cli, g, ids, rl, retries)
	})
}

// processTelegram formats a message as HTML and sends it to every chat ID, queueing it once if any send failed.
func processTelegram(ctx context.Context, eDB db.Store, cli *bot.Bot, g msgtypes.Message, chatIDs []int64,
	rl ratelimit.Limiter, retries uint,
) {
	m := truncateWithEllipsis(format.HTMLMsg(g.Homework, g.IsTest()), TelegramMaxText)

	var failed bool

	for _, id := range chatIDs {
		msg := bot.SendMessageParams{
			ChatID:    id,
			Text:      m,
			ParseMode: models.ParseModeHTML,
		}

		rl.Take()

		// retryable and cancellable attempt to send a message
		err := retry.Do(
			func() error {
				_, err := cli.SendMessage(ctx, &msg)

				return err
			},
			retry.Attempts(retries),
			retry.Context(ctx),
			retry.Delay(TelegramMinDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			logger.Error().Msgf("%v: %v", ErrTelegramSendingMessage, err)

			failed = true
		}
	}

	if failed {
		storeFailed(ctx, eDB, TelegramQueueName, g)
	}
}

// telegramChatIDs converts chat IDs to integers.
func telegramChatIDs(chatIDs []string) ([]int64, error) {
	if len(chatIDs) == 0 {
		return nil, ErrTelegramEmptyUserIDs
	}

	ids := make([]int64, 0, len(chatIDs))

	for _, u := range chatIDs {
		id, err := strconv.ParseInt(u, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTelegramInvalidChatID, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// telegramInit creates a Telegram bot client without starting update polling.
func telegramInit(apiKey string, opts ...bot.Option) (*bot.Bot, error) {
	cli, err := bot.New(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTelegramSession, err)
	}

	return cli, nil
}
