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

package db

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dustin/go-humanize"
)

const (
	DefaultDiscardRatio = 0.5 // recommended discard ratio from Badger docs
	OneGiB              = 1 << 30
)

var (
	ErrBadgerOpen   = errors.New("could not open database")
	ErrBadgerCreate = errors.New("could not create database")
)

// Edb is a BadgerDB backed Store.
type Edb struct {
	db         *badger.DB
	isExisting bool // already created/initialized db
}

var _ Store = (*Edb)(nil)

// New opens a new BadgerDB database, flagging if the database already preexisting.
func New(filePath string) (*Edb, error) {
	if filePath == "" {
		filePath = DefaultDBPath
	}

	isExisting := dbExists(filePath)

	logger.Debug().Msgf("Opening BadgerDB database: %v", filePath)

	db, err := badger.Open(tuneOptions(badger.DefaultOptions(filePath)).WithLogger(nil))
	if err != nil {
		if isExisting {
			return nil, fmt.Errorf("%w: %w", ErrBadgerOpen, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrBadgerCreate, err)
	}

	return &Edb{db: db, isExisting: isExisting}, nil
}

// tuneOptions shrinks Badger caches and tables on 32-bit platforms and under a memory limit below 1GiB.
func tuneOptions(opts badger.Options) badger.Options {
	blockCache := int64(-1)

	if strconv.IntSize == 32 {
		logger.Info().Msg("Detected 32-bit environment and possible mmap issues. Tuning DB for very low memory usage")

		blockCache = 0
	} else if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < OneGiB {
		logger.Info().Msgf("Detected low (%v) memory environment, tuning DB for lower memory usage",
			humanize.IBytes(uint64(limit)))

		blockCache = 8 << 20
	}

	if blockCache < 0 {
		return opts
	}

	return opts.
		WithValueLogFileSize(16 << 20). // 16MB vlog files (default 1GB)
		WithMemTableSize(4 << 20).      // 4MB memtables (default 64MB)
		WithBlockCacheSize(blockCache).
		WithIndexCacheSize(0).
		WithNumMemtables(2).
		WithNumCompactors(2).
		WithValueThreshold(256)
}

// Close closes database, running value log GC until there is nothing left to rewrite.
func (db *Edb) Close() error {
	logger.Debug().Msg("Running database GC")

	for db.db.RunValueLogGC(DefaultDiscardRatio) == nil {
	}

	logger.Debug().Msg("Closing database")

	return db.db.Close()
}

// CheckAndFlagTTL checks if a key already exists in the database and marks it with a flag
// if it doesn't exist. The flag is set with a TTL of 1+ year.
//
// If the key already exists, the function returns (true, nil). If the key doesn't
// exist, the function marks the key and returns (false, nil) on success or
// (false, error) on error.
func (db *Edb) CheckAndFlagTTL(ctx context.Context, bucket, subBucket string, target []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := HashContent(bucket, subBucket, target)

	var found bool

	err := db.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)

		switch {
		case err == nil:
			found = true

			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		return txn.SetEntry(badger.NewEntry(key, nil).WithTTL(DefaultTTL))
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

// Existing returns if the database existed before opening.
func (db *Edb) Existing() bool {
	return db.isExisting
}

// FetchAndStore fetches a value by key, applies a given function to the value
// and stores the result without TTL in a single transaction. Missing keys are
// passed to f as nil.
func (db *Edb) FetchAndStore(ctx context.Context, key []byte, f func(old []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return db.db.Update(func(txn *badger.Txn) error {
		var val []byte

		item, err := txn.Get(key)

		switch {
		case err == nil:
			if val, err = item.ValueCopy(nil); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		newVal, err := f(val)
		if err != nil {
			return err
		}

		return txn.Set(key, newVal)
	})
}
