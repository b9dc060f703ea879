package messenger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/homework"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/dkorunic/mash-homework/queue"
	"github.com/dkorunic/mash-homework/sqlitedb"
)

var testMsg = msgtypes.Message{
	ProfileID: "1234567",
	Homework: homework.Homework{
		Date:        "2099-09-10",
		SubjectName: "History",
		Task:        "Read ch. 4",
		TestURLs:    [][]string{{"https://uchebnik.mos.ru/a"}},
	},
}

// testStore opens a temporary SQLite store closed at test cleanup.
func testStore(t *testing.T) db.Store {
	t.Helper()

	eDB, err := sqlitedb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = eDB.Close() })

	return eDB
}

// queued drains a persistent queue and returns its length.
func queued(t *testing.T, eDB db.Store, queueName []byte) int {
	t.Helper()

	return len(queue.FetchFailedMsgs(context.Background(), eDB, queueName))
}

// closedChan returns an already closed channel carrying given messages.
func closedChan(msgs ...msgtypes.Message) <-chan msgtypes.Message {
	ch := make(chan msgtypes.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}

	close(ch)

	return ch
}

// recorder counts requests per URL path.
type recorder struct {
	mu    sync.Mutex
	paths map[string]int
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paths == nil {
		r.paths = make(map[string]int)
	}

	r.paths[req.URL.Path]++
}

func (r *recorder) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.paths[path]
}

// newTestServer starts a fake API server replying with status and body for every request.
func newTestServer(t *testing.T, rec *recorder, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return server
}

func replyJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// rewriteTransport sends every request to the target server regardless of the request host.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = ""

	return http.DefaultTransport.RoundTrip(r)
}
