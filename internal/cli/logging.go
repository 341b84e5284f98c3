package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// errUnknownLogFormat is returned for a log_format other than text or json.
var errUnknownLogFormat = errors.New("unknown log format")

// newLogger builds the run's logger. Logs go to w (stderr) so they never mix
// with the command output on stdout.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", level, err)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: %q (want text or json)", errUnknownLogFormat, format)
	}
}
