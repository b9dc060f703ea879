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

package db

import (
	"context"
	"time"

	"github.com/dkorunic/mash-homework/homework"
)

const (
	DefaultDBPath = ".mash-homework.db" // default store location
	DefaultTTL    = time.Hour * 9000    // a bit more than 1 year TTL
)

// Store is a persistent "already seen" registry with an additional raw key/value area used by the failed
// message queue. Both BadgerDB (Edb) and SQLite (sqlitedb.Edb) backends implement it.
type Store interface {
	// CheckAndFlagTTL reports whether the (bucket, subBucket, target) tuple has been seen before, flagging it
	// with DefaultTTL when it has not.
	CheckAndFlagTTL(ctx context.Context, bucket, subBucket string, target []string) (bool, error)
	// FetchAndStore atomically replaces the value under key with the result of f applied to the old value.
	FetchAndStore(ctx context.Context, key []byte, f func(old []byte) ([]byte, error)) error
	// Existing reports whether the store existed before it was opened.
	Existing() bool
	Close() error
}

// HomeworkTarget returns the dedup tuple for homework: profile ID, subject name and (due date, task).
func HomeworkTarget(profileID string, h homework.Homework) (string, string, []string) {
	return profileID, h.SubjectName, []string{h.Date, h.Task}
}
