package messenger

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/slack-go/slack"
	"go.uber.org/ratelimit"
)

const slackPostPath = "/chat.postMessage"

func TestProcessSlack(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	server := newTestServer(t, rec, replyJSON(http.StatusOK, `{"ok":true,"channel":"C01234ABCDE","ts":"1.2"}`))
	eDB := testStore(t)
	api := slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/"))

	processSlack(context.Background(), eDB, api, testMsg, []string{"C01234ABCDE", "U01234ABCDE"},
		ratelimit.NewUnlimited(), 1)

	if n := rec.count(slackPostPath); n != 2 {
		t.Errorf("chat.postMessage called %d times, want 2", n)
	}

	if n := queued(t, eDB, SlackQueueName); n != 0 {
		t.Errorf("queue has %d messages, want 0", n)
	}
}

func TestProcessSlackFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	server := newTestServer(t, rec, replyJSON(http.StatusOK, `{"ok":false,"error":"channel_not_found"}`))
	eDB := testStore(t)
	api := slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/"))

	processSlack(context.Background(), eDB, api, testMsg, []string{"C01234ABCDE"}, ratelimit.NewUnlimited(), 1)

	if n := queued(t, eDB, SlackQueueName); n != 1 {
		t.Errorf("queue has %d messages, want 1", n)
	}
}

func TestSlack(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	server := newTestServer(t, rec, replyJSON(http.StatusOK, `{"ok":true,"channel":"C01234ABCDE","ts":"1.2"}`))
	eDB := testStore(t)

	err := Slack(context.Background(), eDB, closedChan(testMsg), "xoxb-test", []string{"C01234ABCDE"}, 1,
		slack.OptionAPIURL(server.URL+"/"))
	if err != nil {
		t.Fatalf("Slack() error = %v", err)
	}

	if n := rec.count(slackPostPath); n != 1 {
		t.Errorf("chat.postMessage called %d times, want 1", n)
	}
}

func TestSlackInvalidParams(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eDB := testStore(t)

	if err := Slack(ctx, eDB, closedChan(), "", []string{"C01234ABCDE"}, 1); !errors.Is(err, ErrSlackEmptyAPIKey) {
		t.Errorf("Slack() error = %v, want %v", err, ErrSlackEmptyAPIKey)
	}

	if err := Slack(ctx, eDB, closedChan(), "xoxb-test", nil, 1); !errors.Is(err, ErrSlackEmptyUserIDs) {
		t.Errorf("Slack() error = %v, want %v", err, ErrSlackEmptyUserIDs)
	}
}

func TestSlackCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// open channel: only cancellation can end the loop
	ch := make(chan msgtypes.Message)

	err := Slack(ctx, testStore(t), ch, "xoxb-test", []string{"C01234ABCDE"}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Slack() error = %v, want %v", err, context.Canceled)
	}
}
