package session

import (
	"cutoutd/internal/codec"
	"cutoutd/internal/history"
)

// Snapshot is a read-only, self-consistent copy of the session.
type Snapshot struct {
	Phase            Phase
	StatusMessage    string
	ErrorMessage     *string
	Progress         int
	OriginalImage    *string
	ResultImage      *string
	History          []history.Item
	DownloadProgress DownloadProgress
	SelectedModel    string
	Cycle            uint64
}

func (s Snapshot) IsIdle() bool       { return s.Phase == PhaseIdle }
func (s Snapshot) IsLoading() bool    { return s.Phase == PhaseLoading }
func (s Snapshot) IsProcessing() bool { return s.Phase == PhaseProcessing }
func (s Snapshot) IsDone() bool       { return s.Phase == PhaseDone }
func (s Snapshot) IsError() bool      { return s.Phase == PhaseError }
func (s Snapshot) HasImage() bool     { return s.OriginalImage != nil }
func (s Snapshot) HasResult() bool    { return s.ResultImage != nil }

// Snapshot returns a consistent copy of every field.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:            s.phase,
		StatusMessage:    s.status,
		ErrorMessage:     clonePtr(s.errMsg),
		Progress:         s.progress,
		OriginalImage:    clonePtr(s.original),
		ResultImage:      clonePtr(s.result),
		History:          s.hist.Items(),
		DownloadProgress: s.download,
		SelectedModel:    s.selected,
		Cycle:            s.cycle,
	}
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) IsIdle() bool       { return s.Phase() == PhaseIdle }
func (s *Session) IsLoading() bool    { return s.Phase() == PhaseLoading }
func (s *Session) IsProcessing() bool { return s.Phase() == PhaseProcessing }
func (s *Session) IsDone() bool       { return s.Phase() == PhaseDone }
func (s *Session) IsError() bool      { return s.Phase() == PhaseError }

func (s *Session) StatusMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ErrorMessage is non-nil exactly when the phase is PhaseError.
func (s *Session) ErrorMessage() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.errMsg)
}

func (s *Session) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *Session) OriginalImage() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.original)
}

func (s *Session) ResultImage() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePtr(s.result)
}

func (s *Session) HasImage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.original != nil
}

func (s *Session) HasResult() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result != nil
}

// OriginalImageURL renders the original payload through the codec; nil
// when there is no original.
func (s *Session) OriginalImageURL() *string {
	return s.codec.DataURL(s.OriginalImage())
}

// ResultImageURL renders the result payload through the codec; nil when
// there is no result.
func (s *Session) ResultImageURL() *string {
	return s.codec.DataURL(s.ResultImage())
}

// Codec returns the codec used for URL rendering.
func (s *Session) Codec() codec.Codec { return s.codec }

// History returns the retained results, newest first.
func (s *Session) History() []history.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hist.Items()
}

// HistoryItem returns the retained result with the given id.
func (s *Session) HistoryItem(id string) (history.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hist.Get(id)
}

func (s *Session) DownloadProgress() DownloadProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.download
}

func (s *Session) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}
