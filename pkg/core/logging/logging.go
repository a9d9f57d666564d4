// Copyright 2025 Philipp Hossner
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

// Package logging builds zerohop's process logger: log/slog with a
// logfmt text handler on stdout. Levels come either as names
// (ERROR/WARNING/INFO/DEBUG) or as the numeric verbosity the config
// file and VERBOSE env var share.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// levelsByName maps accepted level spellings to slog levels. Unknown
// or empty input falls back to INFO.
var levelsByName = map[string]slog.Level{
	"ERROR":   slog.LevelError,
	"WARNING": slog.LevelWarn,
	"WARN":    slog.LevelWarn,
	"INFO":    slog.LevelInfo,
	"DEBUG":   slog.LevelDebug,
}

// NewLogger builds a logfmt logger at the named level
// (case-insensitive). Invalid names default to INFO.
func NewLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	})
	return slog.New(handler)
}

// NewLoggerFromVerbose creates a logger from the numeric verbosity
// convention shared by the config file's logging.verbose field and the
// VERBOSE environment variable: 0 = WARNING, 1 = INFO, 2 = DEBUG.
// Out-of-range values default to INFO.
func NewLoggerFromVerbose(verbose int) *slog.Logger {
	switch verbose {
	case 0:
		return NewLogger("WARNING")
	case 2:
		return NewLogger("DEBUG")
	default:
		return NewLogger("INFO")
	}
}

func parseLogLevel(level string) slog.Level {
	if l, ok := levelsByName[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return l
	}
	return slog.LevelInfo
}
