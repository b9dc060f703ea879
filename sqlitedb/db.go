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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/logger"
	_ "modernc.org/sqlite" // register pure-Go sqlite database/sql driver
)

const (
	Suffix = ".sqlite"

	// wait for locks held by other processes instead of failing with SQLITE_BUSY
	dsnParams = "?_pragma=busy_timeout(5000)&_txlock=immediate"

	schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key BLOB PRIMARY KEY,
		value BLOB,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_expires_at ON kv(expires_at);
	`
	selectExpiry = "SELECT expires_at FROM kv WHERE key = ?"
	selectValue  = "SELECT value, expires_at FROM kv WHERE key = ?"
	upsert       = "INSERT OR REPLACE INTO kv (key, value, expires_at) VALUES (?, ?, ?)"
	deleteStale  = "DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at < ?"
)

var (
	ErrSqliteOpen        = errors.New("could not open Sqlite database")
	ErrSqliteCreateTable = errors.New("could not create table")
	ErrDeleteBadgerDB    = errors.New("could not remove old BadgerDB directory, please delete manually")
)

// Edb is a SQLite backed db.Store keeping every key in a single kv table with optional expiry.
type Edb struct {
	db         *sql.DB
	isExisting bool // already created/initialized db
	now        func() time.Time
}

var _ db.Store = (*Edb)(nil)

// New opens a new SQLite database at filePath with ".sqlite" suffix appended, flagging if the database already
// preexisting. When filePath itself is a BadgerDB directory, its content is migrated and the directory removed.
func New(ctx context.Context, filePath string) (*Edb, error) {
	if filePath == "" {
		filePath = db.DefaultDBPath
	}

	badgerPath := filePath
	filePath = Path(filePath)

	isExisting := db.Exists(filePath)

	logger.Debug().Msgf("Opening SQLite database: %v", filePath)

	sdb, err := sql.Open("sqlite", filePath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSqliteOpen, err)
	}

	// a single connection serializes writers from concurrent messengers and the dedup filter
	sdb.SetMaxOpenConns(1)

	if _, err = sdb.ExecContext(ctx, schema); err != nil {
		_ = sdb.Close()

		return nil, fmt.Errorf("%w: %w", ErrSqliteCreateTable, err)
	}

	edb := &Edb{db: sdb, isExisting: isExisting, now: time.Now}

	if isBadgerDir(badgerPath) {
		if err = edb.migrateBadger(ctx, badgerPath); err != nil {
			_ = edb.Close()

			return nil, err
		}
	}

	edb.cleanup(ctx)

	return edb, nil
}

// Path returns SQLite database file name for the given store path.
func Path(filePath string) string {
	if strings.HasSuffix(filePath, Suffix) {
		return filePath
	}

	return filePath + Suffix
}

// isBadgerDir checks if the given path is a directory containing Badger MANIFEST file.
func isBadgerDir(filePath string) bool {
	fi, err := os.Stat(filePath)
	if err != nil || !fi.IsDir() {
		return false
	}

	fm, err := os.Stat(filepath.Join(filePath, "MANIFEST"))

	return err == nil && fm.Mode().IsRegular()
}

// migrateBadger imports BadgerDB directory content and removes the directory afterwards.
func (e *Edb) migrateBadger(ctx context.Context, badgerPath string) error {
	if err := e.ImportFromBadger(ctx, badgerPath); err != nil {
		return err
	}

	// imported keys mean alerts were already sent from this store
	e.isExisting = true

	logger.Info().Msgf("Removing BadgerDB directory post-import at %v", badgerPath)

	if err := os.RemoveAll(badgerPath); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteBadgerDB, err)
	}

	return nil
}

// Close closes database.
func (e *Edb) Close() error {
	logger.Debug().Msg("Closing database")

	return e.db.Close()
}

// CheckAndFlagTTL checks if a key already exists and is not expired, and marks it with a 1+ year TTL flag if it
// doesn't exist. Returns true when the key has been found.
func (e *Edb) CheckAndFlagTTL(ctx context.Context, bucket, subBucket string, target []string) (bool, error) {
	key := db.HashContent(bucket, subBucket, target)
	now := e.now()

	var expiresAt sql.NullInt64

	err := e.db.QueryRowContext(ctx, selectExpiry, key).Scan(&expiresAt)

	switch {
	case err == nil && !isExpired(expiresAt, now):
		return true, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, err
	}

	// missing or expired, so (re)flag it
	expiry := sql.NullInt64{Int64: now.Add(db.DefaultTTL).Unix(), Valid: true}
	if _, err = e.db.ExecContext(ctx, upsert, key, []byte{}, expiry); err != nil {
		return false, err
	}

	return false, nil
}

// Existing returns if the database existed before opening.
func (e *Edb) Existing() bool {
	return e.isExisting
}

// FetchAndStore fetches a value by key, applies a given function to the value and stores the result without
// expiry in a single transaction. Missing or expired keys are passed to f as nil.
func (e *Edb) FetchAndStore(ctx context.Context, key []byte, f func(old []byte) ([]byte, error)) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		val       []byte
		expiresAt sql.NullInt64
	)

	err = tx.QueryRowContext(ctx, selectValue, key).Scan(&val, &expiresAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		val = nil
	case err != nil:
		return err
	case isExpired(expiresAt, e.now()):
		val = nil
	}

	newVal, err := f(val)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, upsert, key, newVal, sql.NullInt64{}); err != nil {
		return err
	}

	return tx.Commit()
}

// cleanup removes expired keys.
func (e *Edb) cleanup(ctx context.Context) {
	res, err := e.db.ExecContext(ctx, deleteStale, e.now().Unix())
	if err != nil {
		logger.Error().Msgf("Failed to cleanup expired keys: %v", err)

		return
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logger.Debug().Msgf("Removed %d expired keys", n)
	}
}

func isExpired(expiresAt sql.NullInt64, now time.Time) bool {
	return expiresAt.Valid && expiresAt.Int64 < now.Unix()
}
