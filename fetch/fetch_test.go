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

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dkorunic/mash-homework/homework"
)

const historyBody = `[{
  "id": 1,
  "created_at": "2020-02-17 10:00:00",
  "homework_entry": {
    "description": "Read ch. 4",
    "homework": {
      "date_prepared_for": "18.02.2020",
      "subject": {"id": 12, "name": "History"}
    },
    "eom_urls": [{"urls": [{"url": "http://x/1"}, {"url": "http://x/2"}]}]
  }
}]`

// recorder captures requests seen by the fake homework API.
type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req.Clone(context.Background()))
}

func (r *recorder) last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.requests[len(r.requests)-1]
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()

	rec := &recorder{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(server.Close)

	return server, rec
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithBaseURL(server.URL), WithHTTPClient(server.Client())}, opts...)

	c, err := NewClientWithContext(context.Background(), "test-token", "42", opts...)
	if err != nil {
		t.Fatalf("NewClientWithContext failed: %v", err)
	}

	return c
}

func TestGetHomework(t *testing.T) {
	t.Parallel()

	server, rec := newTestServer(t, http.StatusOK, historyBody)
	c := newTestClient(t, server)

	from := time.Date(2020, 2, 17, 0, 0, 0, 0, time.Local)
	to := time.Date(2020, 2, 21, 0, 0, 0, 0, time.Local)

	hw, err := c.GetHomework(from, to)
	if err != nil {
		t.Fatalf("GetHomework failed: %v", err)
	}

	expected := []homework.Homework{
		{
			Date:        "18.02.2020",
			CreatedAt:   "2020-02-17 10:00:00",
			SubjectName: "History",
			Task:        "Read ch. 4",
			TestURLs:    [][]string{{"http://x/1", "http://x/2"}},
		},
	}

	if !reflect.DeepEqual(hw, expected) {
		t.Errorf("expected %+v, got %+v", expected, hw)
	}

	req := rec.last()

	if req.Method != http.MethodGet {
		t.Errorf("expected GET, got %v", req.Method)
	}

	if req.URL.Path != HomeworkPath {
		t.Errorf("expected path %v, got %v", HomeworkPath, req.URL.Path)
	}

	if v := req.URL.Query().Get("begin_prepared_date"); v != "17.02.2020" {
		t.Errorf("unexpected begin_prepared_date: %q", v)
	}

	if v := req.URL.Query().Get("end_prepared_date"); v != "21.02.2020" {
		t.Errorf("unexpected end_prepared_date: %q", v)
	}

	headers := map[string]string{
		"Auth-Token":   "test-token",
		"Profile-Id":   "42",
		"User-Agent":   UserAgent,
		"Content-Type": "application/json",
		"Accept":       "*/*",
	}

	for k, v := range headers {
		if got := req.Header.Get(k); got != v {
			t.Errorf("header %v: expected %q, got %q", k, v, got)
		}
	}
}

func TestGetHomeworkAtEqualsRange(t *testing.T) {
	t.Parallel()

	server, rec := newTestServer(t, http.StatusOK, historyBody)
	c := newTestClient(t, server)

	d := time.Date(2024, 12, 31, 15, 4, 5, 0, time.Local)

	atHw, err := c.GetHomeworkAt(d)
	if err != nil {
		t.Fatalf("GetHomeworkAt failed: %v", err)
	}

	atQuery := rec.last().URL.RawQuery

	rangeHw, err := c.GetHomework(d, d)
	if err != nil {
		t.Fatalf("GetHomework failed: %v", err)
	}

	rangeQuery := rec.last().URL.RawQuery

	if atQuery != rangeQuery {
		t.Errorf("expected identical queries, got %q and %q", atQuery, rangeQuery)
	}

	if atQuery != "begin_prepared_date=31.12.2024&end_prepared_date=31.12.2024" {
		t.Errorf("unexpected query: %q", atQuery)
	}

	if !reflect.DeepEqual(atHw, rangeHw) {
		t.Errorf("expected identical results, got %+v and %+v", atHw, rangeHw)
	}
}

func TestGetHomeworkDefaultsToToday(t *testing.T) {
	t.Parallel()

	server, rec := newTestServer(t, http.StatusOK, "[]")

	now := time.Date(2023, 9, 1, 8, 0, 0, 0, time.Local)
	c := newTestClient(t, server, WithNow(func() time.Time { return now }))

	testCases := []struct {
		name          string
		from, to      time.Time
		expectedBegin string
		expectedEnd   string
	}{
		{
			name:          "BothOmitted",
			expectedBegin: "01.09.2023",
			expectedEnd:   "01.09.2023",
		},
		{
			name:          "ToOmitted",
			from:          time.Date(2023, 8, 28, 0, 0, 0, 0, time.Local),
			expectedBegin: "28.08.2023",
			expectedEnd:   "01.09.2023",
		},
		{
			name:          "FromOmitted",
			to:            time.Date(2023, 9, 5, 0, 0, 0, 0, time.Local),
			expectedBegin: "01.09.2023",
			expectedEnd:   "05.09.2023",
		},
	}

	// sequential: all cases share one recorder
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hw, err := c.GetHomework(tc.from, tc.to)
			if err != nil {
				t.Fatalf("GetHomework failed: %v", err)
			}

			if len(hw) != 0 {
				t.Errorf("expected no homework, got %d", len(hw))
			}

			q := rec.last().URL.Query()
			if q.Get("begin_prepared_date") != tc.expectedBegin || q.Get("end_prepared_date") != tc.expectedEnd {
				t.Errorf("expected %v-%v, got %v-%v", tc.expectedBegin, tc.expectedEnd,
					q.Get("begin_prepared_date"), q.Get("end_prepared_date"))
			}
		})
	}
}

func TestGetHomeworkErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{
			name:     "Unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"message": "invalid token"}`,
			expected: ErrUnexpectedStatus,
		},
		{
			name:     "ServerError",
			status:   http.StatusBadGateway,
			body:     "",
			expected: ErrUnexpectedStatus,
		},
		{
			name:     "NotJSON",
			status:   http.StatusOK,
			body:     "<html>maintenance</html>",
			expected: ErrDecode,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newTestServer(t, tc.status, tc.body)
			c := newTestClient(t, server)

			_, err := c.GetHomeworkAt(time.Now())
			if !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestGetHomeworkStatusCode(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, http.StatusForbidden, "")
	c := newTestClient(t, server)

	_, err := c.GetHomeworkAt(time.Now())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}

	if statusErr.Code != http.StatusForbidden {
		t.Errorf("expected status %v, got %v", http.StatusForbidden, statusErr.Code)
	}

	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected %v to match %v", err, ErrUnexpectedStatus)
	}
}

func TestWithTimeoutKeepsSharedClient(t *testing.T) {
	t.Parallel()

	shared := &http.Client{Timeout: time.Minute}

	c, err := NewClientWithContext(context.Background(), "test-token", "42", WithHTTPClient(shared),
		WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClientWithContext failed: %v", err)
	}

	if shared.Timeout != time.Minute {
		t.Errorf("shared client timeout changed to %v", shared.Timeout)
	}

	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("expected client timeout %v, got %v", 5*time.Second, c.httpClient.Timeout)
	}

	if c.httpClient == shared {
		t.Error("expected a copy of the shared client")
	}
}

func TestGetHomeworkNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClientWithContext(context.Background(), "test-token", "42", WithBaseURL(url),
		WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClientWithContext failed: %v", err)
	}

	_, err = c.GetHomeworkAt(time.Now())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected %v, got %v", ErrNetwork, err)
	}

	if errors.Is(err, ErrDecode) || errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("network error must not match other kinds: %v", err)
	}
}

func TestGetHomeworkCancelled(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, http.StatusOK, "[]")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := NewClientWithContext(ctx, "test-token", "42", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClientWithContext failed: %v", err)
	}

	_, err = c.GetHomeworkAt(time.Now())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected %v, got %v", context.Canceled, err)
	}
}

func TestNewClientWithContext(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		token     string
		profileID string
		opts      []Option
		expected  error
	}{
		{name: "EmptyToken", profileID: "1", expected: ErrEmptyToken},
		{name: "EmptyProfile", token: "t", expected: ErrEmptyProfileID},
		{name: "RelativeBaseURL", token: "t", profileID: "1", opts: []Option{WithBaseURL("dnevnik")}, expected: ErrInvalidBaseURL},
		{name: "Valid", token: "t", profileID: "1", opts: []Option{WithBaseURL("https://example.org")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewClientWithContext(context.Background(), tc.token, tc.profileID, tc.opts...)
			if tc.expected == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tc.expected != nil && !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}
