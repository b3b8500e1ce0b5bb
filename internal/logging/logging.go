// Package logging builds the stderr logger shared by every component.
// Stdout carries the protocol, so nothing here ever writes to it.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix tags every line written by the server
const Prefix = "elm-package-mcp"

// Options configures New
type Options struct {
	Level string // debug, info, warn, error; empty means info
	File  string // optional path; stderr when empty
}

// New returns a logger and a closer for its output. The closer is a no-op
// when logging to stderr.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closer = f
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          Prefix,
	})
	logger.SetLevel(level)

	return logger, closer, nil
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// NewTestLogger creates a logger that writes to a buffer for testing
func NewTestLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "test",
	})
	logger.SetLevel(log.DebugLevel)

	return logger, &buf
}

// ParseProtocolLevel maps the syslog-style levels clients send with
// logging/setLevel onto logger levels.
func ParseProtocolLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "notice":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "critical", "alert", "emergency":
		return log.FatalLevel, nil
	default:
		return 0, fmt.Errorf("unknown logging level %q", level)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
