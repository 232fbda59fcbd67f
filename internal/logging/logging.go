// Package logging builds the zerolog logger shared by the commands.
//
// Log lines go to a console writer and, when a log file is configured, to
// a rotating JSON file:
//
//	log, closeLog, err := logging.New(settings, os.Stderr)
//	defer closeLog()
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/ultraschall/podcast-tools/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits of the log file.
const (
	maxSizeMB  = 10
	maxAgeDays = 14
	maxBackups = 5
)

// New returns a logger writing human readable lines to console and JSON
// lines to settings.LogFile when set. The returned function closes the
// log file.
func New(settings *config.Settings, console io.Writer) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(settings.LogLevel)
	if err != nil {
		return zerolog.Nop(), noop, err
	}

	writers := []io.Writer{}
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(console),
		})
	}

	closeFn := noop
	if settings.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(settings.LogFile), 0755); err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   settings.LogFile,
			MaxSize:    maxSizeMB,
			MaxAge:     maxAgeDays,
			MaxBackups: maxBackups,
		}
		writers = append(writers, file)
		closeFn = file.Close
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, closeFn, nil
}

// ParseLevel parses debug, info, warn or error. An empty string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func noop() error { return nil }
