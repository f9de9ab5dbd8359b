// Package logging builds the process logger and bridges session events
// into it.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cutoutd/internal/session"
)

// New returns a logger writing to w. format is "json" or "console";
// level is any zerolog level name ("debug", "info", "warn", ...).
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Publisher writes session events to a zerolog logger. Progress-type
// events are logged at debug, failures at warn, the rest at info.
type Publisher struct {
	log zerolog.Logger
}

// NewPublisher returns a session.EventPublisher backed by l.
func NewPublisher(l zerolog.Logger) *Publisher {
	return &Publisher{log: l.With().Str("component", "session").Logger()}
}

func (p *Publisher) Publish(e session.Event) {
	var ev *zerolog.Event
	switch e.Name {
	case "progress", "status", "download_progress", "original_image", "result_image":
		ev = p.log.Debug()
	case "error":
		ev = p.log.Warn()
	default:
		ev = p.log.Info()
	}
	ev.Str("phase", string(e.Phase)).Uint64("cycle", e.Cycle).Fields(e.Fields).Msg(e.Name)
}
