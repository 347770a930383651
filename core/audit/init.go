// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package audit configures the process-wide zerolog logger shared by the
localization engine's packages. Each package derives its own logger with a
"sys" field; audit only decides level, format, and destination.
*/
package audit

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDefaultLogger provides an ok log output format on startup if no config is set.
func SetDefaultLogger() {
	log.Logger = log.Output(ConsoleWriter(os.Stderr))
}

// Setup applies the configured log level and format to the global logger.
// Unknown levels keep the current global level; format "json" writes raw
// JSON events, anything else uses the console writer.
func Setup(level, format string) {
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
	}

	if format == "json" {
		log.Logger = log.Output(os.Stderr)

		return
	}

	log.Logger = log.Output(ConsoleWriter(os.Stderr))
}

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}

// ConsoleWriter returns a writer for zerolog that has NoColor:isTerminal(f).
func ConsoleWriter(f *os.File) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    !isTerminal(f),
		TimeFormat: time.DateTime,
	}
}
