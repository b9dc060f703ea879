// @license
// Copyright (C) 2023  Dinko Korunic
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

package messenger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/format"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/dkorunic/mash-homework/oauth"
	"go.uber.org/ratelimit"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	CalendarAPILimit   = 5 // recommended pace between Calendar API calls
	CalendarWindow     = 1 * time.Second
	CalendarMinDelay   = CalendarWindow / CalendarAPILimit
	CalendarMaxResults = 200
	CalendarQueue      = "calendar-queue"
	CalendarPrimary    = "primary"
)

var (
	ErrCalendarReadingCreds = errors.New("unable to read credentials file")
	ErrCalendarParsingCreds = errors.New("unable to parse credentials file")
	ErrCalendarClient       = errors.New("unable to initialize Google Calendar client")
	ErrCalendarNotFound     = errors.New("unable to find Google Calendar ID")
	ErrCalendarInsert       = errors.New("unable to insert Google Calendar event")

	CalendarQueueName = []byte(CalendarQueue)
)

// Calendar messenger resends queued messages and then processes homework alerts from a channel, creating an all-day
// event on the homework due date. Homework due in the past or without a parseable due date is skipped.
func Calendar(ctx context.Context, eDB db.Store, ch <-chan msgtypes.Message, name, tokFile, credFile string,
	retries uint,
) error {
	srv, calID, err := InitCalendar(ctx, credFile, tokFile, name)
	if err != nil {
		return err
	}

	logger.Debug().Msg("Creating homework events with Google Calendar API")

	rl := ratelimit.New(CalendarAPILimit, ratelimit.Per(CalendarWindow))

	return processQueueAndChannel(ctx, eDB, CalendarQueueName, ch, func(g msgtypes.Message) {
		processCalendar(ctx, eDB, srv, calID, g, time.Now(), rl, retries)
	})
}

// calendarEvent converts a message into an all-day event. Event ID is derived from homework content, so that
// repeated inserts of the same homework are idempotent.
func calendarEvent(g msgtypes.Message, due time.Time) *calendar.Event {
	sb := strings.Builder{}
	format.PlainFormatSubject(&sb, g.Homework, g.IsTest())

	return &calendar.Event{
		Id:          format.EventID(g.ProfileID, g.Homework),
		Summary:     sb.String(),
		Description: format.PlainMsg(g.Homework, g.IsTest()),
		Start: &calendar.EventDateTime{
			Date: due.Format(time.DateOnly),
		},
		End: &calendar.EventDateTime{
			Date: due.AddDate(0, 0, 1).Format(time.DateOnly),
		},
	}
}

// processCalendar inserts a homework event, treating an already existing event as success and queueing the
// message on other failures.
func processCalendar(ctx context.Context, eDB db.Store, srv *calendar.Service, calID string, g msgtypes.Message,
	now time.Time, rl ratelimit.Limiter, retries uint,
) {
	due, err := g.Homework.DueDate()
	if err != nil {
		logger.Warn().Msgf("Skipping homework event for %v: %v", g.Homework.SubjectName, err)

		return
	}

	// skip events in the past
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, due.Location())
	if due.Before(today) {
		logger.Info().Msgf("Skipping old homework event for %v due %v", g.Homework.SubjectName, g.Homework.Date)

		return
	}

	ev := calendarEvent(g, due)

	rl.Take()

	// retryable and cancellable attempt
	err = retry.Do(
		func() error {
			_, err := srv.Events.Insert(calID, ev).Context(ctx).Do()

			var gErr *googleapi.Error
			if errors.As(err, &gErr) && gErr.Code == http.StatusConflict {
				return nil
			}

			return err
		},
		retry.Attempts(retries),
		retry.Context(ctx),
		retry.Delay(CalendarMinDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Error().Msgf("%v: %v", ErrCalendarInsert, err)

		storeFailed(ctx, eDB, CalendarQueueName, g)
	}
}

// InitCalendar initializes a Google Calendar service through OAuth and resolves the calendar ID.
func InitCalendar(ctx context.Context, credFile, tokFile, name string) (*calendar.Service, string, error) {
	b, err := os.ReadFile(credFile)
	if err != nil {
		return nil, "", fmt.Errorf("%w %v: %w", ErrCalendarReadingCreds, credFile, err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope, calendar.CalendarEventsScope)
	if err != nil {
		return nil, "", fmt.Errorf("%w %v: %w", ErrCalendarParsingCreds, credFile, err)
	}

	client, err := oauth.GetClient(ctx, config, tokFile)
	if err != nil {
		return nil, "", err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrCalendarClient, err)
	}

	calID, err := getCalendarID(ctx, srv, name)
	if err != nil {
		return nil, "", err
	}

	return srv, calID, nil
}

// getCalendarID gets a Google calendar ID out of a symbolic calendar name, paging through the calendar list.
func getCalendarID(ctx context.Context, srv *calendar.Service, calendarName string) (string, error) {
	if calendarName == "" {
		return CalendarPrimary, nil
	}

	nextPageToken := ""

	for {
		listCal, err := srv.CalendarList.List().
			Context(ctx).
			MaxResults(CalendarMaxResults).
			PageToken(nextPageToken).
			Do()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCalendarNotFound, err)
		}

		for _, item := range listCal.Items {
			if item.Summary == calendarName {
				return item.Id, nil
			}
		}

		nextPageToken = listCal.NextPageToken
		if nextPageToken == "" {
			break
		}
	}

	return "", fmt.Errorf("%w: %v", ErrCalendarNotFound, calendarName)
}
