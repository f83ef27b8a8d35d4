package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/stvsmth/sieve/internal"
)

// Output selects where log records go.
type Output string

const (
	OutputFile   Output = "file"
	OutputStdout Output = "stdout"
)

// ParseOutput validates a log output name.
func ParseOutput(s string) (Output, error) {
	switch Output(strings.ToLower(s)) {
	case OutputFile:
		return OutputFile, nil
	case OutputStdout:
		return OutputStdout, nil
	default:
		return "", errors.Errorf("unknown log output %q (want file or stdout)", s)
	}
}

var (
	Logger  *zerolog.Logger
	logFile *os.File
	discard = zerolog.New(io.Discard)
)

// Init sets up the global logger.
// level: "debug", "info", "warn", "error"; anything else means info.
// output: file writes to <dir>/<timestamp>-sieve.log, stdout writes to the console.
// Returns the log file path, or "" when logging to stdout.
func Init(level string, output Output, dir string) (string, error) {
	logLevel := ParseLevel(level)

	switch output {
	case OutputStdout:
		l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}).
			With().Timestamp().Logger().Level(logLevel)
		Logger = &l
		return "", nil

	case OutputFile:
		if dir == "" {
			dir = "."
		}
		name := filepath.Join(dir, time.Now().Format(internal.LogFileTimeFormat)+internal.LogFileSuffix)
		f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return "", errors.Errorf("opening log file: %w", err)
		}
		logFile = f
		l := zerolog.New(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "2006-01-02 15:04:05"}).
			With().Timestamp().Logger().Level(logLevel)
		Logger = &l
		return name, nil

	default:
		return "", errors.Errorf("unknown log output %q", output)
	}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger, or a logger that discards everything
// if Init was never called.
func Get() *zerolog.Logger {
	if Logger == nil {
		return &discard
	}
	return Logger
}

// Close closes the log file, if any, and resets the global logger.
func Close() error {
	Logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// CleanupEmpty removes the log file at path when nothing was written to it.
func CleanupEmpty(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Errorf("checking log file: %w", err)
	}
	if info.Size() > 0 {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return errors.Errorf("removing empty log file: %w", err)
	}
	return nil
}
