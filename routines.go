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
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blang/semver/v4"
	"github.com/dkorunic/mash-homework/config"
	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/fetch"
	"github.com/dkorunic/mash-homework/format"
	"github.com/dkorunic/mash-homework/homework"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/messenger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/dkorunic/mash-homework/queue"
	"github.com/dkorunic/mash-homework/version"
	"github.com/google/go-github/v75/github"
	"github.com/teivah/broadcast"
	"github.com/tj/go-spin"
)

const (
	broadcastBufLen    = 10                     // events buffered per messenger listener
	spinnerRotateDelay = 100 * time.Millisecond // spinner delay
	githubOrg          = "dkorunic"
	githubRepo         = "mash-homework"
)

var (
	ErrFetching = errors.New("error fetching homework for profile")
	ErrICS      = errors.New("error exporting homework to iCalendar")
	ErrDiscord  = errors.New("Discord messenger issue")  //nolint:stylecheck
	ErrTelegram = errors.New("Telegram messenger issue") //nolint:stylecheck
	ErrSlack    = errors.New("Slack messenger issue")    //nolint:stylecheck
	ErrMail     = errors.New("Mail messenger issue")     //nolint:stylecheck
	ErrCalendar = errors.New("Google Calendar issue")    //nolint:stylecheck
)

// collect fetches homework due between from and to with the configured diary access settings.
func collect(ctx context.Context, cfg config.TomlConfig, from, to time.Time) ([]homework.Homework, error) {
	opts := make([]fetch.Option, 0, 2)

	if cfg.Mash.BaseURL != "" {
		opts = append(opts, fetch.WithBaseURL(cfg.Mash.BaseURL))
	}

	if cfg.Mash.Timeout > 0 {
		opts = append(opts, fetch.WithTimeout(cfg.Mash.Timeout))
	}

	client, err := fetch.NewClientWithContext(ctx, cfg.Mash.Token, cfg.Mash.ProfileID, opts...)
	if err != nil {
		return nil, err
	}
	defer client.CloseConnections()

	return client.GetHomework(from, to)
}

// exportICS writes homework into the iCalendar file given with -o, if any.
func exportICS(profileID string, items []homework.Homework) {
	if *icsFile == "" {
		return
	}

	if err := format.WriteICal(*icsFile, profileID, items); err != nil {
		logger.Warn().Msgf("%v: %v", ErrICS, err)
		exitWithError.Store(true)

		return
	}

	logger.Info().Msgf("Exported %v homework items to %v", len(items), *icsFile)
}

// printHomework writes one "<subject_name>: <task>" line per homework to sb, in service order, optionally followed
// by test and material URLs.
func printHomework(sb *strings.Builder, items []homework.Homework, withURLs bool) {
	for _, h := range items {
		sb.WriteString(format.PlainLine(h))
		sb.WriteString("\n")

		if withURLs {
			sb.WriteString(format.PlainURLs(h.TestURLs))
		}
	}
}

// fetcher collects homework for the configured profile and sends every item as a message to a channel.
func fetcher(ctx context.Context, wgFetch *sync.WaitGroup, hwFetched chan<- msgtypes.Message, cfg config.TomlConfig,
	from, to time.Time,
) {
	logger.Debug().Msg("Starting homework fetcher")

	wgFetch.Add(1)

	go func() {
		defer wgFetch.Done()

		items, err := collect(ctx, cfg, from, to)
		if err != nil {
			logger.Warn().Msgf("%v %v: %v", ErrFetching, cfg.Mash.ProfileID, err)
			exitWithError.Store(true)

			return
		}

		logger.Debug().Msgf("Fetched %v homework items for %v - %v", len(items), from.Format(flagDateLayout),
			to.Format(flagDateLayout))

		exportICS(cfg.Mash.ProfileID, items)

		now := time.Now()

		for _, h := range items {
			select {
			case <-ctx.Done():
				return
			case hwFetched <- msgtypes.Message{
				Timestamp: now,
				ProfileID: cfg.Mash.ProfileID,
				Code:      msgtypes.NewHomework,
				Homework:  h,
			}:
			}
		}
	}()
}

// messengerRoutine describes a single enabled messenger: its name for logging, the error to report, its failed
// message queue and the sending routine itself.
type messengerRoutine struct {
	name  string
	err   error
	queue []byte
	run   func(ch <-chan msgtypes.Message) error
}

// messengers returns sending routines for all messengers enabled in the configuration.
func messengers(ctx context.Context, eDB db.Store, cfg config.TomlConfig) []messengerRoutine {
	var m []messengerRoutine

	if cfg.DiscordEnabled {
		m = append(m, messengerRoutine{"Discord", ErrDiscord, messenger.DiscordQueueName, func(ch <-chan msgtypes.Message) error {
			return messenger.Discord(ctx, eDB, ch, cfg.Discord.Token, cfg.Discord.UserIDs, *retries)
		}})
	}

	if cfg.TelegramEnabled {
		m = append(m, messengerRoutine{"Telegram", ErrTelegram, messenger.TelegramQueueName, func(ch <-chan msgtypes.Message) error {
			return messenger.Telegram(ctx, eDB, ch, cfg.Telegram.Token, cfg.Telegram.ChatIDs, *retries)
		}})
	}

	if cfg.SlackEnabled {
		m = append(m, messengerRoutine{"Slack", ErrSlack, messenger.SlackQueueName, func(ch <-chan msgtypes.Message) error {
			return messenger.Slack(ctx, eDB, ch, cfg.Slack.Token, cfg.Slack.ChatIDs, *retries)
		}})
	}

	if cfg.MailEnabled {
		srv := messenger.MailServer{
			Server:   cfg.Mail.Server,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Subject:  cfg.Mail.Subject,
			To:       cfg.Mail.To,
		}

		m = append(m, messengerRoutine{"Mail", ErrMail, messenger.MailQueueName, func(ch <-chan msgtypes.Message) error {
			return messenger.Mail(ctx, eDB, ch, srv, *retries)
		}})
	}

	if cfg.CalendarEnabled {
		m = append(m, messengerRoutine{"Calendar", ErrCalendar, messenger.CalendarQueueName, func(ch <-chan msgtypes.Message) error {
			return messenger.Calendar(ctx, eDB, ch, cfg.Calendar.Name, *calTokFile, *calCredFile, *retries)
		}})
	}

	return m
}

// msgSend relays homework messages to all enabled messengers. Every messenger first resends its own queue of
// previously failed messages and then listens to the relay until it is closed. Messages a messenger did not take,
// because it failed to start or was stopped, are put in its queue for the next run.
func msgSend(ctx context.Context, eDB db.Store, wgMsg *sync.WaitGroup, hwMsg <-chan msgtypes.Message,
	routines []messengerRoutine,
) {
	wgMsg.Add(1)

	go func() {
		defer wgMsg.Done()

		relay := broadcast.NewRelay[msgtypes.Message]()
		defer relay.Close()

		for _, r := range routines {
			l := relay.Listener(broadcastBufLen)

			wgMsg.Add(1)

			go func() {
				defer wgMsg.Done()
				logger.Debug().Msgf("%v messenger started", r.name)

				if err := r.run(l.Ch()); err != nil {
					logger.Warn().Msgf("%v: %v", r.err, err)
					exitWithError.Store(true)
				}

				// keep the relay flowing and keep what was left behind
				var left []msgtypes.Message
				for g := range l.Ch() {
					left = append(left, g)
				}

				requeue(ctx, eDB, r, left)
			}()
		}

		// already flagged messages are relayed even when stopping, so they end up in queues
		for g := range hwMsg {
			relay.Notify(g)
		}
	}()
}

// requeue stores messages a messenger did not process in its failed message queue.
func requeue(ctx context.Context, eDB db.Store, r messengerRoutine, msgs []msgtypes.Message) {
	if len(msgs) == 0 {
		return
	}

	logger.Info().Msgf("%v messenger left %v messages unsent, queueing them", r.name, len(msgs))

	if err := queue.StoreFailedMsgs(ctx, eDB, r.queue, msgs...); err != nil {
		logger.Error().Msgf("%v: %v", r.err, err)
		exitWithError.Store(true)
	}
}

// msgDedup acts like a filter: processes all incoming messages, checks them against the alert database and if it
// hasn't been found and if it is not an initial run, it will pass through to messengers for further alerting.
func msgDedup(ctx context.Context, eDB db.Store, wgFilter *sync.WaitGroup, hwFetched <-chan msgtypes.Message,
	hwMsg chan<- msgtypes.Message,
) {
	wgFilter.Add(1)

	go func() {
		defer wgFilter.Done()
		defer close(hwMsg)

		if !eDB.Existing() {
			logger.Info().Msg("Newly initialized database, won't send alerts in this run")
		}

		for g := range hwFetched {
			if ctx.Err() != nil {
				return
			}

			logger.Debug().Msgf("Received homework for: %v/%v: %+v", g.ProfileID, g.Homework.SubjectName, g.Homework)

			bucket, subBucket, target := db.HomeworkTarget(g.ProfileID, g.Homework)

			found, err := eDB.CheckAndFlagTTL(ctx, bucket, subBucket, target)
			if err != nil {
				if ctx.Err() != nil {
					return
				}

				logger.Fatal().Msgf("Problem with database, cannot continue: %v", err)
			}

			if !found && eDB.Existing() {
				logger.Info().Msgf("New homework for: %v/%v: %v", g.ProfileID, g.Homework.SubjectName, g.Homework.Date)

				// msgSend drains hwMsg until it is closed, so this cannot block past a cancellation
				hwMsg <- g
			}
		}
	}()
}

// spinner shows a spiffy terminal spinner while waiting endlessly.
func spinner() {
	s := spin.New()

	for {
		fmt.Printf("\rWaiting... %v", s.Next())
		time.Sleep(spinnerRotateDelay)
	}
}

// currentVersion returns the running version: the build-time tag when injected, otherwise the module version
// recorded by the Go toolchain. Dirty source builds return an empty string.
func currentVersion() string {
	if GitDirty != "" {
		return ""
	}

	if GitTag != "" {
		return GitTag
	}

	return version.MainVersion()
}

// parseVersion parses a semantic version with an optional "v" prefix.
func parseVersion(s string) (semver.Version, error) {
	return semver.Parse(strings.TrimPrefix(s, "v"))
}

// versionCheck compares the running version with the latest GitHub release and logs when a newer one exists.
func versionCheck(ctx context.Context, wgVersion *sync.WaitGroup) {
	wgVersion.Add(1)

	go func() {
		defer wgVersion.Done()

		current := currentVersion()
		if current == "" {
			return
		}

		currentTag, err := parseVersion(current)
		if err != nil {
			logger.Error().Msgf("Unable to parse current version of mash-homework: %v", err)

			return
		}

		client := github.NewClient(nil)

		latestRelease, _, err := client.Repositories.GetLatestRelease(ctx, githubOrg, githubRepo)
		if err != nil {
			logger.Error().Msgf("Unable to check latest version of mash-homework: %v", err)

			return
		}

		latestTag, err := parseVersion(latestRelease.GetTagName())
		if err != nil {
			logger.Error().Msgf("Unable to parse latest version of mash-homework: %v", err)

			return
		}

		if latestTag.GT(currentTag) {
			logger.Info().Msgf("Newer version of mash-homework is available: %v", latestTag)
		}
	}()
}
