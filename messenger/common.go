// @license
// Copyright (C) 2026  Dinko Korunic
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

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/dkorunic/mash-homework/queue"
)

// processQueueAndChannel resends previously failed messages from the persistent queue first and then processes
// all messages from the channel until it gets closed or the context gets cancelled. On cancellation, drained queue
// messages not yet processed and messages already waiting in the channel go back to the queue.
func processQueueAndChannel(ctx context.Context, eDB db.Store, queueName []byte, ch <-chan msgtypes.Message,
	process func(msgtypes.Message),
) error {
	failed := queue.FetchFailedMsgs(ctx, eDB, queueName)

	for i, g := range failed {
		if err := ctx.Err(); err != nil {
			storeFailed(ctx, eDB, queueName, append(failed[i:], pendingMsgs(ch)...)...)

			return err
		}

		process(g)
	}

	for {
		select {
		case <-ctx.Done():
			storeFailed(ctx, eDB, queueName, pendingMsgs(ch)...)

			return ctx.Err()
		case g, ok := <-ch:
			if !ok {
				return nil
			}

			process(g)
		}
	}
}

// pendingMsgs returns messages already buffered in the channel without waiting for more.
func pendingMsgs(ch <-chan msgtypes.Message) []msgtypes.Message {
	var msgs []msgtypes.Message

	for {
		select {
		case g, ok := <-ch:
			if !ok {
				return msgs
			}

			msgs = append(msgs, g)
		default:
			return msgs
		}
	}
}

// storeFailed queues messages that could not be delivered, logging queueing problems.
func storeFailed(ctx context.Context, eDB db.Store, queueName []byte, g ...msgtypes.Message) {
	if err := queue.StoreFailedMsgs(ctx, eDB, queueName, g...); err != nil {
		logger.Error().Msgf("%v", err)
	}
}

// truncateWithEllipsis truncates a string with ellipsis at the end if it's longer than max runes.
func truncateWithEllipsis(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes-3]) + "..."
}
