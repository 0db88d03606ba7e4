package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

const DefaultLogLevel = slog.LevelInfo

var (
	// LogLevel Used for flags.
	LogLevel = DefaultLogLevel
	// LogJSON Used for flags.
	LogJSON bool
)

// ParseLogLevel will convert the slog level configuration to slog.Level values.
func ParseLogLevel(levelStr string) (slog.Level, error) {
	switch {
	case strings.EqualFold(levelStr, slog.LevelDebug.String()):
		return slog.LevelDebug, nil
	case strings.EqualFold(levelStr, slog.LevelInfo.String()):
		return slog.LevelInfo, nil
	case strings.EqualFold(levelStr, slog.LevelWarn.String()):
		return slog.LevelWarn, nil
	case strings.EqualFold(levelStr, slog.LevelError.String()):
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("unknown level string: '%s', defaulting to LevelInfo", levelStr)
}

// ConfigureLogger installs the default slog logger, writing to stderr so
// command output on stdout stays machine readable.
func ConfigureLogger() {
	slog.SetDefault(NewLogger(os.Stderr, LogLevel, LogJSON))
}

// NewLogger builds a slog logger backed by zerolog. Without json the output
// is the human readable console format.
func NewLogger(w io.Writer, level slog.Level, json bool) *slog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	//nolint
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	zerologLogger := zerolog.New(w).
		With().
		Timestamp().
		Stack().
		Logger()

	if !json {
		zerologLogger = zerologLogger.Output(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.StampMicro,
		})
	}

	return slog.New(
		slogzerolog.Option{
			Level:  level,
			Logger: &zerologLogger,
		}.NewZerologHandler(),
	)
}
