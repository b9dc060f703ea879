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
	"bytes"
	"context"
	stdsha256 "crypto/sha256"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dkorunic/mash-homework/homework"
)

func TestDBOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "badger")

	eDB, err := New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if eDB.Existing() {
		t.Error("Existing() should be false for a new database")
	}

	h := homework.Homework{Date: "2025-09-10", SubjectName: "History", Task: "Read ch. 4"}
	bucket, subBucket, target := HomeworkTarget("1", h)

	found, err := eDB.CheckAndFlagTTL(ctx, bucket, subBucket, target)
	if err != nil {
		t.Fatalf("CheckAndFlagTTL() failed: %v", err)
	}

	if found {
		t.Error("CheckAndFlagTTL() should return false for a new key")
	}

	found, err = eDB.CheckAndFlagTTL(ctx, bucket, subBucket, target)
	if err != nil {
		t.Fatalf("CheckAndFlagTTL() failed: %v", err)
	}

	if !found {
		t.Error("CheckAndFlagTTL() should return true for an existing key")
	}

	key := []byte("test-key")
	steps := []struct {
		old, new []byte
	}{
		{nil, []byte("new-value")},
		{[]byte("new-value"), []byte("updated-value")},
		{[]byte("updated-value"), []byte("updated-value")},
	}

	for i, s := range steps {
		err = eDB.FetchAndStore(ctx, key, func(old []byte) ([]byte, error) {
			if !bytes.Equal(old, s.old) {
				t.Errorf("step %d: unexpected old value: got %q, want %q", i, old, s.old)
			}

			return s.new, nil
		})
		if err != nil {
			t.Fatalf("FetchAndStore() failed: %v", err)
		}
	}

	errBoom := errors.New("boom")
	if err := eDB.FetchAndStore(ctx, key, func([]byte) ([]byte, error) { return nil, errBoom }); !errors.Is(err, errBoom) {
		t.Errorf("FetchAndStore() error = %v, want %v", err, errBoom)
	}

	if err := eDB.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	eDB, err = New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if !eDB.Existing() {
		t.Error("Existing() should be true for an existing database")
	}

	found, err = eDB.CheckAndFlagTTL(ctx, bucket, subBucket, target)
	if err != nil || !found {
		t.Errorf("CheckAndFlagTTL() after reopen = %v, %v, want true, nil", found, err)
	}

	if err := eDB.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	eDB, err := New(filepath.Join(t.TempDir(), "badger"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer eDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eDB.CheckAndFlagTTL(ctx, "a", "b", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("CheckAndFlagTTL() error = %v, want %v", err, context.Canceled)
	}

	err = eDB.FetchAndStore(ctx, []byte("k"), func(old []byte) ([]byte, error) { return old, nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchAndStore() error = %v, want %v", err, context.Canceled)
	}
}

func TestDBExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if !Exists(dir) {
		t.Errorf("Exists(%q) = false, want true", dir)
	}

	if Exists(filepath.Join(dir, "nonexistent")) {
		t.Error("Exists() = true, want false for nonexistent file")
	}
}

func TestHashContent(t *testing.T) {
	t.Parallel()

	want := stdsha256.Sum256([]byte("1\x00History\x002025-09-10\x00Read ch. 4"))

	if got := HashContent("1", "History", []string{"2025-09-10", "Read ch. 4"}); !bytes.Equal(got, want[:]) {
		t.Errorf("HashContent() = %x, want %x", got, want)
	}

	if bytes.Equal(HashContent("ab", "c", nil), HashContent("a", "bc", nil)) {
		t.Error("HashContent() collides on shifted boundaries")
	}
}
