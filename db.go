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

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/sqlitedb"
)

// openStore opens the alert store with the selected backend. SQLite transparently migrates an existing BadgerDB
// directory found at the same path.
func openStore(ctx context.Context, file, kind string) (db.Store, error) {
	if kind == BackendBadger {
		return db.New(file)
	}

	return sqlitedb.New(ctx, file)
}

// openDB opens application database and returns handle to it, exiting the program on failure.
func openDB(ctx context.Context, file, kind string) db.Store {
	eDB, err := openStore(ctx, file, kind)
	if err != nil {
		logger.Fatal().Msgf("Unable to open application database: %v", err)
	}

	logger.Debug().Msgf("Opened %v application database: %v", kind, file)

	return eDB
}

// closeDB closes the application database.
func closeDB(eDB db.Store) {
	if err := eDB.Close(); err != nil {
		logger.Fatal().Msgf("Unable to close application database: %v", err)
	}
}

// scratchStore opens an empty store in a temporary directory, returning it with a function that closes and removes
// it. Test messages that fail to send are queued there and thrown away.
func scratchStore(ctx context.Context, kind string) (db.Store, func()) {
	dir, err := os.MkdirTemp("", "mash-homework-")
	if err != nil {
		logger.Fatal().Msgf("Unable to create temporary database directory: %v", err)
	}

	eDB := openDB(ctx, filepath.Join(dir, filepath.Base(db.DefaultDBPath)), kind)

	return eDB, func() {
		closeDB(eDB)

		if err := os.RemoveAll(dir); err != nil {
			logger.Warn().Msgf("Unable to remove temporary database directory %v: %v", dir, err)
		}
	}
}
