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
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/dkorunic/mash-homework/config"
	"github.com/dkorunic/mash-homework/homework"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	sysdnotify "github.com/iguanesolutions/go-systemd/v6/notify"
	sysdwatchdog "github.com/iguanesolutions/go-systemd/v6/notify/watchdog"
)

const (
	chanBufLen      = 500             // homework channel buffer length
	exitDelay       = 5 * time.Second // sleep time before giving up on cancellation
	testSubject     = "Тестовый предмет"
	testTask        = "Тестовое задание: прочитать главу 4"
	testURL         = "https://uchebnik.mos.ru/material_view/atomic_objects/1"
	maxMemRatio     = 0.9
	scheduledActive = "Scheduled run in progress"
	scheduledSleep  = "Scheduled run completed, will sleep now"
)

var (
	exitWithError atomic.Bool
	GitTag        = ""
	GitCommit     = ""
	GitDirty      = ""
	BuildTime     = ""
)

// fatalIfErrors exits with a failure status when any errors were encountered during the run.
func fatalIfErrors() {
	if exitWithError.Load() {
		logger.Fatal().Msg("Exiting, during run some errors were encountered.")
	}

	logger.Info().Msg("Exiting with a success.")
}

// main is the entry point of the application.
//
// By default it fetches tomorrow's homework and prints it to stdout. With -n (or -d) it runs the notifier
// pipeline that sends new homework to configured messengers, and with -t it sends a single test message.
func main() {
	parseFlags()

	initLog()

	logger.Info().Msgf("mash-homework %v %v%v, built on %v, with %v", GitTag, GitCommit, GitDirty,
		BuildTime, runtime.Version())

	// configure GOMEMLIMIT to 90% of available memory (Cgroups v2/v1 or system)
	limit, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(maxMemRatio),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)
	if err != nil {
		logger.Warn().Msgf("Unable to get/set GOMEMLIMIT: %v", err)
	} else {
		logger.Debug().Msgf("GOMEMLIMIT is set to: %v", humanize.Bytes(uint64(limit))) //nolint:gosec
	}

	logger.Debug().Msgf("GOMAXPROCS limit is set to: %v", runtime.GOMAXPROCS(0))

	if sysdnotify.IsEnabled() {
		logger.Debug().Msg("Detected and enabled systemd notify support")
	}

	// context with signal integration
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*confFile, *token, *profileID, !*emulation)
	if err != nil {
		logger.Fatal().Msgf("Error loading configuration: %v", err)
	}

	// enable CPU profiling dump on exit
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.Fatal().Msgf("Error creating CPU profile: %v", err)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Msgf("Error starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	// enable memory profile dump on exit
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.Fatal().Msgf("Error trying to create memory profile: %v", err)
		}
		defer f.Close()

		defer func() {
			runtime.GC()

			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.Fatal().Msgf("Error writing memory profile: %v", err)
			}
		}()
	}

	if !*notify && !*emulation {
		printSingleRun(ctx, cfg)

		return
	}

	if !cfg.MessengersEnabled() {
		logger.Fatal().Msg("No messengers are configured, nothing to notify")
	}

	// Google Calendar API initial setup -- needs to be in the main thread
	if cfg.CalendarEnabled {
		checkCalendar(ctx, &cfg)
	}

	// test mode: send messages and exit
	if *emulation {
		testSingleRun(ctx, cfg)

		return
	}

	notifyLoop(ctx, stop, cfg)
}

// printSingleRun fetches homework for the requested dates and prints one line per homework to stdout.
func printSingleRun(ctx context.Context, cfg config.TomlConfig) {
	from, to, err := dateRange(time.Now(), *atDate, *fromDate, *toDate)
	if err != nil {
		logger.Fatal().Msgf("Error parsing dates: %v", err)
	}

	items, err := collect(ctx, cfg, from, to)
	if err != nil {
		logger.Fatal().Msgf("%v %v: %v", ErrFetching, cfg.Mash.ProfileID, err)
	}

	sb := strings.Builder{}
	printHomework(&sb, items, *showURLs)

	if _, err := os.Stdout.WriteString(sb.String()); err != nil {
		logger.Fatal().Msgf("Error writing output: %v", err)
	}

	exportICS(cfg.Mash.ProfileID, items)

	if exitWithError.Load() {
		fatalIfErrors()
	}
}

// notifyLoop runs the notifier pipeline once, or every tick interval when in daemon mode.
func notifyLoop(ctx context.Context, stop context.CancelFunc, cfg config.TomlConfig) {
	// initial ticker delay of 1s
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	if *daemon {
		interval := durafmt.Parse(*tickInterval).String()
		if *jitter {
			logger.Info().Msgf("Service started, will collect homework every %v (with random jitter up to +-10%%)",
				interval)
		} else {
			logger.Info().Msgf("Service started, will collect homework every %v", interval)
		}
	} else {
		logger.Info().Msg("Service is not enabled, doing just a single run")
	}

	_ = sysdnotify.Ready()

	startSystemdWatchdog(ctx)

	for {
		select {
		// in case of context cancellation, try to propagate and exit
		case <-ctx.Done():
			logger.Info().Msg("Received stop signal, asking all routines to stop")
			ticker.Stop()

			_ = sysdnotify.Stopping()

			go stop()

			if isTerminal() {
				go spinner()
			}

			time.Sleep(exitDelay)
			fatalIfErrors()

			return
		case <-ticker.C:
			logger.Info().Msg(scheduledActive)

			// use +-10% random jitter to avoid stampede
			if *jitter {
				ticker.Reset(durationRandJitter(*tickInterval))
			} else {
				ticker.Reset(*tickInterval)
			}

			_ = sysdnotify.Status(scheduledActive)

			// reset exit error status
			exitWithError.Store(false)

			scheduledRun(ctx, cfg)

			if !*daemon {
				fatalIfErrors()

				return
			}

			logger.Info().Msg(scheduledSleep)

			_ = sysdnotify.Status(scheduledSleep)
		}
	}
}

// scheduledRun does a single fetch, dedup and send pass.
func scheduledRun(ctx context.Context, cfg config.TomlConfig) {
	from, to, err := dateRange(time.Now(), *atDate, *fromDate, *toDate)
	if err != nil {
		logger.Fatal().Msgf("Error parsing dates: %v", err)
	}

	hwFetched := make(chan msgtypes.Message, chanBufLen)
	hwMsg := make(chan msgtypes.Message, chanBufLen)

	var wgVersion, wgFetch, wgFilter, wgMsg sync.WaitGroup

	// self-check
	versionCheck(ctx, &wgVersion)

	// open KV store
	eDB := openDB(ctx, *dbFile, *backend)
	defer closeDB(eDB)

	// homework fetcher routine
	fetcher(ctx, &wgFetch, hwFetched, cfg, from, to)

	// message/alert database checking routine
	msgDedup(ctx, eDB, &wgFilter, hwFetched, hwMsg)

	// messenger routines
	msgSend(ctx, eDB, &wgMsg, hwMsg, messengers(ctx, eDB, cfg))

	wgFetch.Wait()
	close(hwFetched)

	wgFilter.Wait()
	wgMsg.Wait()
	wgVersion.Wait()
}

// startSystemdWatchdog sends periodic heartbeats to the systemd watchdog, if one is enabled, until the context is
// cancelled.
func startSystemdWatchdog(ctx context.Context) {
	watchdog, _ := sysdwatchdog.New()
	if watchdog != nil {
		logger.Debug().Msg("Detected and enabled systemd watchdog support")

		go func() {
			ticker := watchdog.NewTicker()
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					_ = watchdog.SendHeartbeat()
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

// testMessage builds a synthetic homework message due tomorrow.
func testMessage(now time.Time, profileID string) msgtypes.Message {
	return msgtypes.Message{
		Timestamp: now,
		ProfileID: profileID,
		Code:      msgtypes.Test,
		Homework: homework.Homework{
			Date:        now.AddDate(0, 0, 1).Format(homework.LayoutISODate),
			CreatedAt:   now.Format(homework.LayoutISODateTime),
			SubjectName: testSubject,
			Task:        testTask,
			TestURLs:    [][]string{{testURL}},
		},
	}
}

// testSingleRun sends a single test message to each configured messenger and exits. It is meant to be used for
// testing and debugging purposes only. The alert database is left alone: creating it here would make the first
// notify run look like a repeated one.
func testSingleRun(ctx context.Context, cfg config.TomlConfig) {
	logger.Info().Msg("Emulation/testing mode enabled, will try to send a test message")
	signal.Reset()

	hwMsg := make(chan msgtypes.Message, 1)
	hwMsg <- testMessage(time.Now(), cfg.Mash.ProfileID)

	close(hwMsg)

	var wgMsg sync.WaitGroup

	eDB, cleanup := scratchStore(ctx, *backend)

	msgSend(ctx, eDB, &wgMsg, hwMsg, messengers(ctx, eDB, cfg))

	wgMsg.Wait()

	cleanup()

	if exitWithError.Load() {
		fatalIfErrors()
	}

	logger.Info().Msg("Exiting with a success from the emulation.")
}

// durationRandJitter adds a random jitter to x in the range [0.9 * x, 1.1 * x].
func durationRandJitter(x time.Duration) time.Duration {
	//nolint:gosec,mnd
	return time.Duration(int64(x) / 100 * (rand.Int64N(21) + 90))
}
