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
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/homework"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/dkorunic/mash-homework/sqlitedb"
)

func openStores(t *testing.T) map[string]db.Store {
	t.Helper()

	ctx := context.Background()

	bdb, err := db.New(filepath.Join(t.TempDir(), "badger"))
	if err != nil {
		t.Fatal(err)
	}

	sdb, err := sqlitedb.New(ctx, filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		_ = bdb.Close()
		_ = sdb.Close()
	})

	return map[string]db.Store{"badger": bdb, "sqlite": sdb}
}

func TestStoreAndFetchFailedMsgs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	key := []byte("test_queue")
	msg1 := msgtypes.Message{ProfileID: "1", Homework: homework.Homework{SubjectName: "History", Task: "Read ch. 4"}}
	msg2 := msgtypes.Message{ProfileID: "1", Homework: homework.Homework{SubjectName: "Math", Task: "Solve 1-5"}}

	for name, eDB := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if got := FetchFailedMsgs(ctx, eDB, key); len(got) != 0 {
				t.Errorf("new queue should be empty, got %v", got)
			}

			for _, m := range []msgtypes.Message{msg1, msg2} {
				if err := StoreFailedMsgs(ctx, eDB, key, m); err != nil {
					t.Fatalf("StoreFailedMsgs failed: %v", err)
				}
			}

			fetchedMsgs := FetchFailedMsgs(ctx, eDB, key)
			if want := []msgtypes.Message{msg1, msg2}; !reflect.DeepEqual(fetchedMsgs, want) {
				t.Errorf("fetched messages do not match.\nGot: %v\nWant: %v", fetchedMsgs, want)
			}

			if fetchedMsgs = FetchFailedMsgs(ctx, eDB, key); len(fetchedMsgs) != 0 {
				t.Errorf("queue should be empty after fetching, got %v", fetchedMsgs)
			}
		})
	}
}

func TestCorruptQueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	key := []byte("corrupt_queue")
	msg := msgtypes.Message{Homework: homework.Homework{SubjectName: "History"}}

	for name, eDB := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			err := eDB.FetchAndStore(ctx, key, func([]byte) ([]byte, error) { return []byte("garbage"), nil })
			if err != nil {
				t.Fatal(err)
			}

			if got := FetchFailedMsgs(ctx, eDB, key); len(got) != 0 {
				t.Errorf("corrupt queue should yield no messages, got %v", got)
			}

			if err := StoreFailedMsgs(ctx, eDB, key, msg); err != nil {
				t.Fatalf("StoreFailedMsgs failed: %v", err)
			}

			if got := FetchFailedMsgs(ctx, eDB, key); len(got) != 1 {
				t.Errorf("expected one message, got %v", got)
			}
		})
	}
}
