package messenger

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-telegram/bot"
	"go.uber.org/ratelimit"
)

const (
	testTelegramToken = "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ012345678"
	telegramSendPath  = "/bot" + testTelegramToken + "/sendMessage"
	telegramOK        = `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":12345,"type":"private"}}}`
)

func testTelegramBot(t *testing.T, serverURL string) *bot.Bot {
	t.Helper()

	b, err := telegramInit(testTelegramToken, bot.WithServerURL(serverURL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("Unable to create Telegram bot: %v", err)
	}

	return b
}

func TestProcessTelegram(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	server := newTestServer(t, rec, replyJSON(http.StatusOK, telegramOK))
	eDB := testStore(t)

	processTelegram(context.Background(), eDB, testTelegramBot(t, server.URL), testMsg, []int64{12345, -100987654321},
		ratelimit.NewUnlimited(), 1)

	if n := rec.count(telegramSendPath); n != 2 {
		t.Errorf("sendMessage called %d times, want 2", n)
	}

	if n := queued(t, eDB, TelegramQueueName); n != 0 {
		t.Errorf("queue has %d messages, want 0", n)
	}
}

func TestProcessTelegramFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	server := newTestServer(t, rec,
		replyJSON(http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	eDB := testStore(t)

	processTelegram(context.Background(), eDB, testTelegramBot(t, server.URL), testMsg, []int64{1, 2},
		ratelimit.NewUnlimited(), 1)

	if n := queued(t, eDB, TelegramQueueName); n != 1 {
		t.Errorf("queue has %d messages, want 1", n)
	}
}

func TestTelegram(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	server := newTestServer(t, rec, replyJSON(http.StatusOK, telegramOK))
	eDB := testStore(t)
	ctx := context.Background()

	// previously failed message gets resent before the new one
	storeFailed(ctx, eDB, TelegramQueueName, testMsg)

	err := Telegram(ctx, eDB, closedChan(testMsg), testTelegramToken, []string{"12345"}, 1,
		bot.WithServerURL(server.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("Telegram() error = %v", err)
	}

	if n := rec.count(telegramSendPath); n != 2 {
		t.Errorf("sendMessage called %d times, want 2", n)
	}
}

func TestTelegramInvalidParams(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eDB := testStore(t)

	tests := []struct {
		name    string
		token   string
		chatIDs []string
		want    error
	}{
		{"no token", "", []string{"1"}, ErrTelegramEmptyAPIKey},
		{"no chats", testTelegramToken, nil, ErrTelegramEmptyUserIDs},
		{"bad chat", testTelegramToken, []string{"abc"}, ErrTelegramInvalidChatID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := Telegram(ctx, eDB, closedChan(), tt.token, tt.chatIDs, 1); !errors.Is(err, tt.want) {
				t.Errorf("Telegram() error = %v, want %v", err, tt.want)
			}
		})
	}
}
