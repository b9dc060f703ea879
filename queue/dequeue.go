// @license
// Copyright (C) 2025  Dinko Korunic
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

package queue

import (
	"context"

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/encdec"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
)

// FetchFailedMsgs drains a persistent queue identified by key, returning its messages for another send attempt.
// Errors are logged and yield an empty list.
func FetchFailedMsgs(ctx context.Context, eDB db.Store, queueKey []byte) []msgtypes.Message {
	var failedList []msgtypes.Message

	err := eDB.FetchAndStore(ctx, queueKey, func(old []byte) ([]byte, error) {
		var err error

		if failedList, err = encdec.DecodeMsgs(old); err != nil {
			logger.Warn().Msgf("Discarding unreadable queue %v: %v", string(queueKey), err)
		}

		return encdec.EncodeMsgs([]msgtypes.Message{})
	})
	if err != nil {
		logger.Error().Msgf("Error managing failed messages list for queue %v: %v", string(queueKey), err)

		return []msgtypes.Message{}
	}

	if n := len(failedList); n > 0 {
		logger.Info().Msgf("Found %v failed messages in queue %v, trying to resend", n, string(queueKey))
	}

	return failedList
}
