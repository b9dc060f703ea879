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

package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/encdec"
	"github.com/dkorunic/mash-homework/msgtypes"
)

const StoreTimeout = 10 * time.Second // upper bound for a queue write outliving its caller

var ErrQueueing = errors.New("problem with persistent queue")

// StoreFailedMsgs appends messages to a persistent queue identified by key, creating the queue if needed. An
// unreadable queue is replaced rather than blocking new entries.
//
// The write ignores cancellation of ctx and is bounded by StoreTimeout instead: messages are queued exactly when a
// run is being stopped.
func StoreFailedMsgs(ctx context.Context, eDB db.Store, key []byte, g ...msgtypes.Message) error {
	if len(g) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), StoreTimeout)
	defer cancel()

	err := eDB.FetchAndStore(ctx, key, func(old []byte) ([]byte, error) {
		msgs, _ := encdec.DecodeMsgs(old)

		return encdec.EncodeMsgs(append(msgs, g...))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQueueing, err)
	}

	return nil
}
