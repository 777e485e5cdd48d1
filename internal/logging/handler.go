// Package logging builds the process slog handler: colorized tint output
// on a terminal and JSON everywhere else.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Formats accepted by Options.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls NewHandler.
type Options struct {
	// Level is debug, info, warn or error; empty means info
	Level string
	// Format is FormatText, FormatJSON or empty to detect from the output
	Format string
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewHandler returns a handler writing to out.
func NewHandler(out io.Writer, opts Options) (slog.Handler, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(opts.Format)
	switch format {
	case "":
		format = FormatJSON
		if isTerminal(out) {
			format = FormatText
		}
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", opts.Format)
	}

	if format == FormatText {
		return tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(out),
		}), nil
	}
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}), nil
}

// Setup installs a handler on os.Stderr as the slog default.
func Setup(opts Options) error {
	h, err := NewHandler(os.Stderr, opts)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
