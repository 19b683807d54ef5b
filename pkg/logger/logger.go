// pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the process logger. Setup also installs it as zerolog's global
	// logger so packages logging through zerolog/log share its output.
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = New(os.Stderr, false)
}

// New builds a console logger writing to w. Debug adds caller information.
func New(w io.Writer, debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
	}

	ctx := zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp()
	if debug {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Setup configures the process logger from the application settings.
func Setup(levelStr string, debug bool) {
	Log = New(os.Stderr, debug)
	if debug && levelStr == "" {
		levelStr = "debug"
	}
	SetLevel(levelStr)
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}
