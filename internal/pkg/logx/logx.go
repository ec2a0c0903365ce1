/*
Package logx provides a structured logging wrapper based on zerolog.

It initializes the global logger, picks the output format (JSON or console) from the environment,
and offers leveled helpers plus per-component child loggers used by the room sessions,
the moderation engine and the status API.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger initializes the global zerolog instance.
// Development: Debug level, ConsoleWriter on stderr. Production: Info level, JSON on stdout.
// All logs include a Unix timestamp and caller information.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var logger zerolog.Logger
	if isDevelopment {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel)
	} else {
		logger = zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Timestamp().Caller().Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Room returns a component logger that also carries the room name.
func Room(component, room string) zerolog.Logger {
	return Logger().With().Str("component", component).Str("room", room).Logger()
}

// emit writes msg with the key-value fields on ev. An odd field count is reported and the
// fields are dropped, since zerolog would otherwise misalign them.
func emit(ev *zerolog.Event, level, msg string, fields []any) {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msgf("Logx call (%s) received odd number of fields: %v. Fields ignored.", level, fields)
		fields = nil
	}
	ev.Fields(fields).CallerSkipFrame(2).Msg(msg)
}

// Debug records a log message at the Debug level.
func Debug(msg string, fields ...any) {
	emit(Logger().Debug(), "Debug", msg, fields)
}

// Info records a log message at the Info level with an optional key-value field list.
func Info(msg string, fields ...any) {
	emit(Logger().Info(), "Info", msg, fields)
}

// Warn records a log message at the Warn level with an optional key-value field list.
func Warn(msg string, fields ...any) {
	emit(Logger().Warn(), "Warn", msg, fields)
}

// Error records err and msg at the Error level with an optional key-value field list.
func Error(err error, msg string, fields ...any) {
	emit(Logger().Error().Err(err), "Error", msg, fields)
}

// Fatal records err and msg at the Fatal level and then calls os.Exit(1).
// Only the process entry point uses it; nothing inside a room session is fatal.
func Fatal(err error, msg string, fields ...any) {
	emit(Logger().Fatal().Err(err), "Fatal", msg, fields)
}
