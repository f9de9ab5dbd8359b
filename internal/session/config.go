package session

import (
	"cutoutd/internal/codec"
	"cutoutd/internal/history"
)

// Config encapsulates the collaborators a Session depends on. Zero values
// select the package defaults.
type Config struct {
	// Codec renders payloads as URIs. Defaults to codec.DataURLCodec.
	Codec codec.Codec
	// NewID generates history item ids. Defaults to history.NewUUID.
	NewID history.IDGenerator
	// Clock stamps history items. Defaults to history.NowMillis.
	Clock history.Clock
	// SelectedModel seeds the model selection, usually the catalog default.
	SelectedModel string
	// Publisher receives lifecycle events. Defaults to a no-op publisher.
	Publisher EventPublisher
}

// New constructs an idle Session.
func New(cfg Config) *Session {
	s := &Session{
		phase:    PhaseIdle,
		codec:    cfg.Codec,
		hist:     history.New(cfg.NewID, cfg.Clock),
		selected: cfg.SelectedModel,
		pub:      cfg.Publisher,
		subs:     make(map[int]chan Snapshot),
	}
	if s.codec == nil {
		s.codec = codec.DataURLCodec{}
	}
	if s.pub == nil {
		s.pub = noopPublisher{}
	}
	return s
}
