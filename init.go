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
	"io/fs"
	"os"
	"strings"

	"github.com/dkorunic/mash-homework/config"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/messenger"
	"github.com/mattn/go-isatty"
)

// init trims build-time injected version variables.
//
//nolint:gochecknoinits
func init() {
	GitTag = strings.TrimSpace(GitTag)
	GitCommit = strings.TrimSpace(GitCommit)
	GitDirty = strings.TrimSpace(GitDirty)
	BuildTime = strings.TrimSpace(BuildTime)
}

// loadConfig loads the TOML configuration and applies credential overrides from flags and environment. A missing
// configuration file is tolerated, so credentials can come from flags alone. Diary credentials are validated only
// when checkCreds is set.
func loadConfig(file, token, profileID string, checkCreds bool) (config.TomlConfig, error) {
	cfg, err := config.LoadConfig(file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}

		logger.Debug().Msgf("Configuration file %v not found, relying on flags and environment", file)
	}

	cfg.SetCredentials(token, profileID)

	if !checkCreds {
		return cfg, nil
	}

	if err := cfg.CheckCredentials(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// checkCalendar runs the interactive Google Calendar OAuth flow early, in the main thread, when there is no token
// file yet. Calendar integration is disabled when that is not possible.
func checkCalendar(ctx context.Context, cfg *config.TomlConfig) {
	if cfg == nil {
		return
	}

	if _, err := os.Stat(*calTokFile); !errors.Is(err, fs.ErrNotExist) {
		return
	}

	if !isTerminal() {
		logger.Error().Msg("Google Calendar API token file not found and first run requires running under a terminal. Disabling Calendar integration.")

		cfg.CalendarEnabled = false

		return
	}

	if _, _, err := messenger.InitCalendar(ctx, *calCredFile, *calTokFile, cfg.Calendar.Name); err != nil {
		logger.Error().Msgf("Error initializing Google Calendar API: %v. Disabling Calendar integration.", err)

		cfg.CalendarEnabled = false
	}
}

// isTerminal checks if the current output is a terminal.
//
// It returns true if the environment does not disable color output, the terminal
// is not set to "dumb", and the output file descriptor is a terminal. It also
// considers Cygwin terminals as valid terminals.
func isTerminal() bool {
	fd := os.Stdout.Fd()

	return os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb" &&
		(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}
