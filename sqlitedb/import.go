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

package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkorunic/mash-homework/logger"
)

const importPrefetch = 100

var (
	ErrBadgerDBNotFound = errors.New("BadgerDB not found")
	ErrBadgerDBOpen     = errors.New("failed to open BadgerDB")
	ErrSqliteTx         = errors.New("failed to begin sqlite transaction")
	ErrSqlitePrepare    = errors.New("failed to prepare statement")
	ErrSqliteImport     = errors.New("import failed")
	ErrSqliteCommit     = errors.New("failed to commit transaction")
)

// ImportFromBadger copies every key, value and expiry from a BadgerDB store into the SQLite kv table in a single
// transaction. Keys with expiry already in the past are skipped.
func (e *Edb) ImportFromBadger(ctx context.Context, badgerPath string) error {
	if !isBadgerDir(badgerPath) {
		return fmt.Errorf("%w: %s", ErrBadgerDBNotFound, badgerPath)
	}

	logger.Info().Msgf("Importing data from BadgerDB at %s", badgerPath)

	bdb, err := badger.Open(badger.DefaultOptions(badgerPath).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadgerDBOpen, err)
	}
	defer bdb.Close()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSqliteTx, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSqlitePrepare, err)
	}
	defer stmt.Close()

	now := uint64(e.now().Unix()) //nolint:gosec

	var count int

	err = bdb.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = importPrefetch

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var expiry sql.NullInt64

			if exp := item.ExpiresAt(); exp > 0 {
				if exp < now {
					continue
				}

				if exp <= math.MaxInt64 {
					expiry = sql.NullInt64{Int64: int64(exp), Valid: true}
				}
			}

			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			if _, err = stmt.ExecContext(ctx, item.KeyCopy(nil), val, expiry); err != nil {
				return err
			}

			count++
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSqliteImport, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrSqliteCommit, err)
	}

	logger.Info().Msgf("Successfully imported %d items from BadgerDB", count)

	return nil
}
