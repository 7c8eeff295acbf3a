// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const sentryFlushTimeout = 2 * time.Second

// Options controls Setup.
type Options struct {
	Level       string
	Format      string
	Writer      io.Writer
	SentryDSN   string
	Environment string
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}

// NewHandler builds a text or JSON handler writing to w.
func NewHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case FormatText, "":
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	}
	return nil, fmt.Errorf("invalid log format %q: must be text or json", format)
}

// Setup installs the default logger and returns it with a flush function
// that must run before exit. With a Sentry DSN, ERROR records are also
// reported to Sentry.
func Setup(opts Options) (*slog.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	handler, err := NewHandler(opts.Writer, level, opts.Format)
	if err != nil {
		return nil, nil, err
	}

	flush := func() {}
	if opts.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.Environment,
		}); err != nil {
			return nil, nil, fmt.Errorf("initializing sentry: %w", err)
		}
		handler = NewMultiHandler(handler, NewSentryHandler(sentry.CurrentHub()))
		flush = func() { sentry.Flush(sentryFlushTimeout) }
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, flush, nil
}
