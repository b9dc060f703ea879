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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/homework"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

const (
	DefaultConfFile      = ".mash-homework.toml"     // default configuration filename
	DefaultTickInterval  = 1 * time.Hour             // default (and minimal permitted value) is 1 tick per 1h
	DefaultRetries       = 3                         // default messenger send attempts
	DefaultCalendarToken = "calendar_token.json"     // default Google Calendar API token file
	DefaultCalendarCreds = "assets/credentials.json" // default Google Calendar API credentials file
	BackendSQLite        = "sqlite"
	BackendBadger        = "badger"
	EnvVarPrefix         = "MASH"
	flagDateLayout       = homework.LayoutISODate
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("start of the date range is after its end")
)

var (
	debug, colorLogs, daemon, notify, jitter, emulation, showURLs    *bool
	confFile, token, profileID, atDate, fromDate, toDate, icsFile    *string
	dbFile, backend, calTokFile, calCredFile, cpuProfile, memProfile *string
	tickInterval                                                     *time.Duration
	retries                                                          *uint
)

// newFlagSet declares all command line flags. Every flag can also be set through a MASH_ prefixed environment
// variable.
func newFlagSet() *ff.FlagSet {
	fs := ff.NewFlagSet("mash-homework")

	confFile = fs.String('f', "conffile", DefaultConfFile, "configuration file (in TOML)")
	token = fs.String('T', "token", "", "e-school diary authentication token (overrides configuration)")
	profileID = fs.String('P', "profile", "", "e-school diary student profile ID (overrides configuration)")
	atDate = fs.String('a', "at", "", "fetch homework due on a single date (YYYY-MM-DD, default tomorrow)")
	fromDate = fs.StringLong("from", "", "start of the date range (YYYY-MM-DD)")
	toDate = fs.StringLong("to", "", "end of the date range (YYYY-MM-DD)")
	showURLs = fs.Bool('u', "urls", "also print test and material URLs")
	icsFile = fs.String('o', "ics", "", "write fetched homework to an iCalendar file")
	notify = fs.Bool('n', "notify", "send new homework to configured messengers")
	daemon = fs.Bool('d', "daemon", "enable daemon mode (running as a service, implies notify)")
	tickInterval = fs.Duration('i', "interval", DefaultTickInterval, "interval between polls when in daemon mode")
	jitter = fs.Bool('j', "jitter", "enable random jitter of +-10% to the poll interval")
	dbFile = fs.String('b', "database", db.DefaultDBPath, "alert database file")
	backend = fs.StringEnum('B', "backend", "alert database backend (sqlite or badger)", BackendSQLite, BackendBadger)
	retries = fs.Uint('r', "retries", DefaultRetries, "default retry attempts for messengers")
	emulation = fs.Bool('t', "test", "send a test homework to all configured messengers and exit")
	calTokFile = fs.String('g', "calendartoken", DefaultCalendarToken, "Google Calendar API token file")
	calCredFile = fs.String('c', "calendarcreds", DefaultCalendarCreds, "Google Calendar API credentials file")
	debug = fs.Bool('v', "verbose", "enable verbose/debug log level")
	colorLogs = fs.Bool('l', "colorlogs", "enable colorized console logs")
	cpuProfile = fs.String('p', "cpuprofile", "", "CPU profile output file")
	memProfile = fs.String('m', "memprofile", "", "memory profile output file")

	return fs
}

// parseFlags parses input arguments and flags, printing usage and exiting on errors.
func parseFlags() {
	fs := newFlagSet()

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix(EnvVarPrefix)); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))

		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *tickInterval < DefaultTickInterval {
		logger.Info().Msg("Poll interval is below 1h, so I will default to 1h")

		*tickInterval = DefaultTickInterval
	}

	*retries = checkRetries(*retries)

	if *daemon {
		*notify = true
	}
}

// checkRetries raises the messenger attempt count to at least 1, as zero attempts means retrying without a limit.
func checkRetries(r uint) uint {
	if r < 1 {
		logger.Info().Msg("Retry attempts are below 1, so I will default to 1")

		return 1
	}

	return r
}

// dateRange resolves date flags into an inclusive range. An explicit --from/--to range wins over --at; a single
// missing range bound copies the other one. Without any date flags the range is the day after now.
func dateRange(now time.Time, at, from, to string) (time.Time, time.Time, error) {
	if from != "" || to != "" {
		if from == "" {
			from = to
		}

		if to == "" {
			to = from
		}

		start, err := parseFlagDate(from, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}

		end, err := parseFlagDate(to, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}

		if start.After(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %v > %v", ErrInvalidRange, from, to)
		}

		return start, end, nil
	}

	if at != "" {
		d, err := parseFlagDate(at, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}

		return d, d, nil
	}

	y, m, d := now.Date()
	tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())

	return tomorrow, tomorrow, nil
}

// parseFlagDate parses a YYYY-MM-DD date in the given location.
func parseFlagDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(flagDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return t, nil
}
