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
	"os"
	"strconv"
	"time"

	"github.com/dkorunic/mash-homework/logger"
	"github.com/reiver/go-cast"
	"github.com/rs/zerolog"
)

// logLevel picks the global log level: DebugLevel with -v, otherwise a numeric LOG_LEVEL environment variable
// when it is a valid zerolog level, otherwise InfoLevel.
func logLevel(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if l, err := strconv.Atoi(v); err == nil {
			if l8, err := cast.Int8(l); err == nil {
				return zerolog.Level(l8)
			}
		}
	}

	return zerolog.InfoLevel
}

// initLog sets the global log level and, with -l, switches to slow colored console logging on stderr. Stdout is
// reserved for homework output.
func initLog() {
	level := logLevel(*debug)

	zerolog.SetGlobalLevel(level)

	if *colorLogs {
		logger.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).
			With().
			Timestamp().
			Caller().
			Logger()
	}
}
