//go:build !logless

// Package logger provides the process-wide structured logger used by every
// component. It mirrors the teacher's console-writer zerolog setup: one
// package level Log, Unix timestamps, caller info attached.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Log = zlog.With().Caller().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// SetLevel adjusts the global log level, driven by the CLI -v/-vv flags.
func SetLevel(level int) {
	switch {
	case level <= 0:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case level == 1:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case level == 2:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case level == 3:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
}
